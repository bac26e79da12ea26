package probe

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"gateprobe/internal/config"
	"gateprobe/internal/iso8583"
	perrors "gateprobe/pkg/errors"
)

// Mode selects what happens on an established connection.
type Mode string

const (
	ModeData Mode = "data"
	ModeRaw  Mode = "raw"
)

// Strategy defines what a probe does with a connection once it is established.
type Strategy interface {
	// Name returns the strategy identifier ("data", "connect" or "raw").
	Name() string
	// Exercise runs the strategy on conn, filling in out. A returned error
	// fails the iteration; the caller closes conn either way.
	Exercise(ctx context.Context, conn net.Conn, report *Reporter, out *Outcome) error
}

// StrategyConfig holds the options and timings a strategy needs.
type StrategyConfig struct {
	SendData       bool
	KeepAlive      bool
	SendTimeout    time.Duration
	ReceiveTimeout time.Duration
	KeepAliveHold  time.Duration
	RawHold        time.Duration
	ReadBuffer     int
}

func (c StrategyConfig) withDefaults() StrategyConfig {
	if c.SendTimeout <= 0 {
		c.SendTimeout = config.DefaultConnectTimeout
	}
	if c.ReceiveTimeout <= 0 {
		c.ReceiveTimeout = config.DefaultReceiveTimeout
	}
	if c.KeepAliveHold <= 0 {
		c.KeepAliveHold = config.DefaultKeepAliveHold
	}
	if c.RawHold <= 0 {
		c.RawHold = config.DefaultRawHold
	}
	if c.ReadBuffer <= 0 {
		c.ReadBuffer = config.DefaultReadBuffer
	}
	return c
}

// DataStrategy sends the sign-in test frame and waits for one response.
// With SendData off it only connects, which is reported as "connect".
type DataStrategy struct {
	config StrategyConfig
}

func (s *DataStrategy) Name() string {
	if !s.config.SendData {
		return "connect"
	}
	return "data"
}

func (s *DataStrategy) Exercise(ctx context.Context, conn net.Conn, report *Reporter, out *Outcome) error {
	if s.config.SendData {
		if err := s.exchange(conn, report, out); err != nil {
			return err
		}
	}

	if s.config.KeepAlive {
		report.Status("Holding connection for %s...", s.config.KeepAliveHold)
		if err := hold(ctx, s.config.KeepAliveHold); err != nil {
			return err
		}
	}
	return nil
}

// exchange writes the frame and attempts one read. Only a read timeout is
// tolerated; it is reported but leaves the iteration successful.
func (s *DataStrategy) exchange(conn net.Conn, report *Reporter, out *Outcome) error {
	frame := iso8583.TestFrame()
	report.Status("Sending test frame (%d bytes): %s", len(frame), hex.EncodeToString(frame))

	conn.SetWriteDeadline(time.Now().Add(s.config.SendTimeout))
	n, err := conn.Write(frame)
	out.Sent = n
	if err != nil {
		return &perrors.ProbeError{
			Address: out.Address,
			Stage:   perrors.StageSend,
			Err:     fmt.Errorf("%w: %v", perrors.ErrSendFailed, err),
		}
	}
	report.Status("Frame sent")

	conn.SetReadDeadline(time.Now().Add(s.config.ReceiveTimeout))
	buf := make([]byte, s.config.ReadBuffer)
	n, err = conn.Read(buf)
	switch {
	case n > 0:
		out.Response = buf[:n]
		out.Receive = ReceiveData
		report.Status("Received response (%d bytes): %s", n, hex.EncodeToString(out.Response))
		if h, inspectErr := iso8583.Inspect(out.Response); inspectErr == nil {
			report.Status("Response frame: %s", h)
		}
	case err == nil || errors.Is(err, io.EOF):
		out.Receive = ReceiveEmpty
		report.Status("No response received")
	case perrors.IsTimeout(err):
		out.Receive = ReceiveTimeout
		report.Status("Receive timed out")
	default:
		return &perrors.ProbeError{
			Address: out.Address,
			Stage:   perrors.StageReceive,
			Err:     fmt.Errorf("%w: %v", perrors.ErrReceiveFailed, err),
		}
	}
	return nil
}

// RawStrategy holds the connection open without any traffic.
type RawStrategy struct {
	config StrategyConfig
}

func (s *RawStrategy) Name() string { return "raw" }

func (s *RawStrategy) Exercise(ctx context.Context, conn net.Conn, report *Reporter, out *Outcome) error {
	report.Status("Holding connection for %s without sending any data...", s.config.RawHold)
	return hold(ctx, s.config.RawHold)
}

// NewStrategy creates a Strategy for mode. Raw mode ignores SendData and KeepAlive.
func NewStrategy(mode Mode, cfg StrategyConfig) (Strategy, error) {
	cfg = cfg.withDefaults()
	switch mode {
	case ModeData, "":
		return &DataStrategy{config: cfg}, nil
	case ModeRaw:
		return &RawStrategy{config: cfg}, nil
	default:
		return nil, fmt.Errorf("unknown probe mode: %s (available: data, raw)", mode)
	}
}

// hold blocks for d or until ctx is done.
func hold(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
