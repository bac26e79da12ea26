package probe

import (
	"context"
	"encoding/hex"
	"net"
	"time"

	"github.com/google/uuid"

	"gateprobe/internal/config"
	"gateprobe/internal/logger"
	"gateprobe/internal/storage"
	"gateprobe/internal/storage/models"
	perrors "gateprobe/pkg/errors"
)

// ReceiveStatus tells what the single receive attempt of a data probe saw.
type ReceiveStatus int

const (
	ReceiveSkipped ReceiveStatus = iota // nothing was sent, so nothing was read
	ReceiveData
	ReceiveEmpty
	ReceiveTimeout
)

func (s ReceiveStatus) String() string {
	switch s {
	case ReceiveData:
		return "data"
	case ReceiveEmpty:
		return "empty"
	case ReceiveTimeout:
		return "timeout"
	default:
		return "skipped"
	}
}

// Outcome is the result of one iteration.
type Outcome struct {
	Iteration   int
	Address     string
	Succeeded   bool
	ConnectTime time.Duration // only set when the connect succeeded
	Sent        int
	Response    []byte // only set when data was sent and a reply arrived
	Receive     ReceiveStatus
	Err         error
	StartedAt   time.Time
}

// ConnectSeconds returns the connect duration in seconds.
func (o *Outcome) ConnectSeconds() float64 {
	return o.ConnectTime.Seconds()
}

// Summary holds the aggregate of a repeat loop.
type Summary struct {
	RunID     string // empty unless the run was recorded
	Target    Target
	Strategy  string
	Repeat    int
	Attempts  int
	Succeeded int
	Outcomes  []*Outcome
	Duration  time.Duration
}

// Failed returns the number of failed iterations.
func (s *Summary) Failed() int {
	return s.Attempts - s.Succeeded
}

// Rate returns the success percentage.
func (s *Summary) Rate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Attempts) * 100
}

func (s *Summary) add(out *Outcome) {
	s.Outcomes = append(s.Outcomes, out)
	s.Attempts++
	if out.Succeeded {
		s.Succeeded++
	}
}

// Dialer opens the probe connection. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// ProgressFunc is called each time an iteration completes.
type ProgressFunc func(out *Outcome, current, total int)

// TesterConfig holds configuration for the Tester.
type TesterConfig struct {
	ConnectTimeout time.Duration
	Interval       time.Duration
	Strategy       Strategy
	Dialer         Dialer
}

// Tester runs probe iterations one after another.
type Tester struct {
	storage storage.Storage
	report  *Reporter
	config  TesterConfig
}

// NewTester creates a new Tester. store may be nil, in which case nothing is recorded.
func NewTester(store storage.Storage, report *Reporter, cfg TesterConfig) *Tester {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = config.DefaultConnectTimeout
	}
	if cfg.Interval <= 0 {
		cfg.Interval = config.DefaultInterval
	}
	if cfg.Dialer == nil {
		cfg.Dialer = &net.Dialer{Timeout: cfg.ConnectTimeout}
	}
	if cfg.Strategy == nil {
		cfg.Strategy, _ = NewStrategy(ModeData, StrategyConfig{SendData: true})
	}
	return &Tester{
		storage: store,
		report:  report,
		config:  cfg,
	}
}

// RunOnce performs a single iteration. Errors never escape: they are
// classified, reported and stored on the returned Outcome.
func (t *Tester) RunOnce(ctx context.Context, target Target, iteration int) *Outcome {
	out := &Outcome{
		Iteration: iteration,
		Address:   target.Address(),
		StartedAt: time.Now(),
	}

	t.report.Status("Starting %s test: %s", t.config.Strategy.Name(), target)
	out.Err = t.exercise(ctx, out)
	out.Succeeded = out.Err == nil
	if out.Err != nil {
		t.report.Failure(out.Err)
	}
	return out
}

func (t *Tester) exercise(ctx context.Context, out *Outcome) error {
	t.report.Status("Connecting...")

	dialCtx, cancel := context.WithTimeout(ctx, t.config.ConnectTimeout)
	defer cancel()

	start := time.Now()
	conn, err := t.config.Dialer.DialContext(dialCtx, "tcp", out.Address)
	if err != nil {
		return &perrors.ProbeError{
			Address: out.Address,
			Stage:   perrors.StageConnect,
			Err:     perrors.Classify(err),
		}
	}
	defer conn.Close()

	out.ConnectTime = time.Since(start)
	t.report.Status("Connected in %.3fs", out.ConnectSeconds())

	if err := t.config.Strategy.Exercise(ctx, conn, t.report, out); err != nil {
		return err
	}

	t.report.Status("Closing connection")
	return nil
}

// Run performs repeat iterations sequentially, pausing Interval between them,
// and returns the tally.
func (t *Tester) Run(ctx context.Context, target Target, repeat int, progress ProgressFunc) (*Summary, error) {
	if repeat < 1 {
		return nil, perrors.ErrInvalidRepeat
	}
	startTime := time.Now()

	summary := &Summary{
		Target:   target,
		Strategy: t.config.Strategy.Name(),
		Repeat:   repeat,
	}
	run := t.beginRun(ctx, summary)

	for i := 1; i <= repeat; i++ {
		if repeat > 1 {
			t.report.Banner(i, repeat)
		}

		out := t.RunOnce(ctx, target, i)
		summary.add(out)
		t.recordAttempt(ctx, run, out)

		if progress != nil {
			progress(out, i, repeat)
		}

		if i < repeat {
			if err := hold(ctx, t.config.Interval); err != nil {
				break
			}
		}
	}

	summary.Duration = time.Since(startTime)
	t.finishRun(ctx, run, summary)
	return summary, nil
}

// History writes are best-effort: a broken database never fails a probe.

func (t *Tester) beginRun(ctx context.Context, summary *Summary) *models.Run {
	if t.storage == nil {
		return nil
	}
	run := &models.Run{
		ID:        uuid.NewString(),
		Host:      summary.Target.Host,
		Port:      summary.Target.Port,
		Mode:      summary.Strategy,
		Repeat:    summary.Repeat,
		StartedAt: time.Now(),
	}
	if err := t.storage.CreateRun(ctx, run); err != nil {
		logger.Warn().Err(err).Msg("Failed to record run, continuing without history")
		return nil
	}
	summary.RunID = run.ID
	return run
}

func (t *Tester) recordAttempt(ctx context.Context, run *models.Run, out *Outcome) {
	if run == nil {
		return
	}
	attempt := &models.Attempt{
		RunID:     run.ID,
		Iteration: out.Iteration,
		Success:   out.Succeeded,
		TestedAt:  out.StartedAt,
	}
	if out.Err == nil {
		ms := float64(out.ConnectTime.Microseconds()) / 1000
		attempt.ConnectMS = &ms
	} else {
		attempt.ErrorKind = perrors.Kind(out.Err)
		attempt.ErrorMessage = out.Err.Error()
		if out.ConnectTime > 0 {
			ms := float64(out.ConnectTime.Microseconds()) / 1000
			attempt.ConnectMS = &ms
		}
	}
	if len(out.Response) > 0 {
		attempt.ResponseHex = hex.EncodeToString(out.Response)
	}
	if err := t.storage.RecordAttempt(ctx, attempt); err != nil {
		logger.Warn().Err(err).Int("iteration", out.Iteration).Msg("Failed to record attempt")
	}
}

func (t *Tester) finishRun(ctx context.Context, run *models.Run, summary *Summary) {
	if run == nil {
		return
	}
	run.Attempts = summary.Attempts
	run.Succeeded = summary.Succeeded
	if err := t.storage.FinishRun(ctx, run); err != nil {
		logger.Warn().Err(err).Str("run", run.ID).Msg("Failed to finish run record")
	}
}
