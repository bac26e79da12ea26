package app

import (
	"fmt"

	"gateprobe/internal/config"
	"gateprobe/internal/logger"
	"gateprobe/internal/paths"
	"gateprobe/internal/storage"
	"gateprobe/internal/storage/sqlite"
)

// App represents the application context
type App struct {
	Config  *config.Config
	Storage storage.Storage // nil until OpenStorage is called
}

// Options are the global command-line settings that shape the App.
type Options struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	Verbose    bool
}

// New creates a new application instance. No file is read unless
// opts.ConfigPath is set, and the history database is opened lazily.
func New(opts Options) (*App, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if opts.LogLevel != "" {
		cfg.Level = opts.LogLevel
	}
	if opts.Verbose {
		cfg.Level = "debug"
	}
	if opts.DBPath != "" {
		cfg.DBPath = opts.DBPath
	}

	logger.Init(cfg.Level)
	if opts.ConfigPath != "" {
		logger.Debug().Str("path", opts.ConfigPath).Msg("Loaded config file")
	}

	return &App{Config: cfg}, nil
}

// OpenStorage opens the history database, creating it on first use.
func (a *App) OpenStorage() (storage.Storage, error) {
	if a.Storage != nil {
		return a.Storage, nil
	}

	dbPath := a.Config.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = paths.HistoryDB()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve history database path: %w", err)
		}
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	paths.ChownToRealUser(dbPath)
	logger.Debug().Str("path", dbPath).Msg("Opened history database")

	a.Storage = store
	return store, nil
}

// Close closes the application and releases resources
func (a *App) Close() error {
	if a.Storage != nil {
		err := a.Storage.Close()
		a.Storage = nil
		return err
	}
	return nil
}
