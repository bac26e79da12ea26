package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// Common error types
var (
	// Connect errors
	ErrConnectTimeout    = errors.New("connection timed out")
	ErrConnectionRefused = errors.New("connection refused")

	// Exchange errors
	ErrSendFailed     = errors.New("failed to send test frame")
	ErrReceiveFailed  = errors.New("failed to receive response")
	ErrReceiveTimeout = errors.New("receive timed out")

	// Input errors
	ErrInvalidTarget = errors.New("invalid target")
	ErrInvalidRepeat = errors.New("repeat must be at least 1")
	ErrInvalidConfig = errors.New("invalid config")

	// History errors
	ErrRunNotFound = errors.New("run not found")
)

// Stage names the step of an iteration an error happened in.
type Stage string

const (
	StageConnect Stage = "connect"
	StageSend    Stage = "send"
	StageReceive Stage = "receive"
)

// ProbeError represents a failure of a single probe iteration
type ProbeError struct {
	Address string
	Stage   Stage
	Err     error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Address, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// ConfigError represents a config-file related error
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config '%s': %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a deadline or i/o timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsRefused reports whether err is a transport-level connection rejection.
func IsRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, ErrConnectionRefused)
}

// Classify maps a connect error onto ErrConnectTimeout or ErrConnectionRefused.
// Any other error is returned unchanged and counts as a generic failure.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrConnectTimeout), errors.Is(err, ErrConnectionRefused):
		return err
	case IsTimeout(err):
		return fmt.Errorf("%w: %v", ErrConnectTimeout, err)
	case IsRefused(err):
		return fmt.Errorf("%w: %v", ErrConnectionRefused, err)
	default:
		return err
	}
}

// Kind returns a short, stable name for a classified error, used in history records.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConnectTimeout):
		return "timeout"
	case errors.Is(err, ErrConnectionRefused):
		return "refused"
	case errors.Is(err, ErrSendFailed):
		return "send"
	case errors.Is(err, ErrReceiveFailed):
		return "receive"
	default:
		return "error"
	}
}

// Is and As forward to the standard library so callers need a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }
