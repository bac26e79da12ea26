package config

import (
	"fmt"
	"time"

	"gopkg.in/ini.v1"

	perrors "gateprobe/pkg/errors"
)

// Default timings of a probe iteration.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultReceiveTimeout = 5 * time.Second
	DefaultKeepAliveHold  = 30 * time.Second
	DefaultRawHold        = 10 * time.Second
	DefaultInterval       = 1 * time.Second
	DefaultReadBuffer     = 1024
)

// ProbeConf holds per-iteration timings.
type ProbeConf struct {
	ConnectTimeout time.Duration `ini:"connect_timeout"`
	ReceiveTimeout time.Duration `ini:"receive_timeout"`
	KeepAliveHold  time.Duration `ini:"keep_alive_hold"`
	RawHold        time.Duration `ini:"raw_hold"`
	Interval       time.Duration `ini:"interval"`
	ReadBuffer     int           `ini:"read_buffer"`
}

// LogConf contains logging specific configuration
type LogConf struct {
	Level string `ini:"level"`
}

// HistoryConf controls the optional run history database.
type HistoryConf struct {
	DBPath string `ini:"db_path"`
	Record bool   `ini:"record"`
}

// Config is the unified gateprobe configuration.
type Config struct {
	ProbeConf   `ini:"probe"`
	LogConf     `ini:"log"`
	HistoryConf `ini:"history"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		ProbeConf: ProbeConf{
			ConnectTimeout: DefaultConnectTimeout,
			ReceiveTimeout: DefaultReceiveTimeout,
			KeepAliveHold:  DefaultKeepAliveHold,
			RawHold:        DefaultRawHold,
			Interval:       DefaultInterval,
			ReadBuffer:     DefaultReadBuffer,
		},
		LogConf: LogConf{Level: "info"},
	}
}

// Load reads an ini file over the defaults. Keys missing from the file keep
// their default value.
func Load(fileName string) (*Config, error) {
	cfg := Default()
	iniFile, err := ini.Load(fileName)
	if err != nil {
		return nil, &perrors.ConfigError{Path: fileName, Err: err}
	}
	if err := iniFile.MapTo(cfg); err != nil {
		return nil, &perrors.ConfigError{Path: fileName, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &perrors.ConfigError{Path: fileName, Err: err}
	}
	return cfg, nil
}

// Validate checks that every timing is usable.
func (c *Config) Validate() error {
	durations := []struct {
		key string
		val time.Duration
	}{
		{"connect_timeout", c.ConnectTimeout},
		{"receive_timeout", c.ReceiveTimeout},
		{"keep_alive_hold", c.KeepAliveHold},
		{"raw_hold", c.RawHold},
		{"interval", c.Interval},
	}
	for _, d := range durations {
		if d.val <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", perrors.ErrInvalidConfig, d.key, d.val)
		}
	}
	if c.ReadBuffer < 1 || c.ReadBuffer > 65535 {
		return fmt.Errorf("%w: read_buffer must be in 1..65535, got %d", perrors.ErrInvalidConfig, c.ReadBuffer)
	}
	return nil
}
