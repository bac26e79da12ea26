package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"gateprobe/internal/logger"
	"gateprobe/internal/probe"
)

// WatchConfig controls how often a probe batch is repeated.
type WatchConfig struct {
	Every  time.Duration // pause between batch starts
	Repeat int           // iterations per batch
	Count  int           // number of batches; 0 runs until the context is cancelled
}

// BatchFunc is called with the summary of every finished batch.
type BatchFunc func(batch int, summary *probe.Summary)

// Watcher re-runs a probe batch on a fixed schedule. Batches never overlap:
// a batch that outlasts Every delays the next one.
type Watcher struct {
	scheduler gocron.Scheduler
	tester    *probe.Tester
	target    probe.Target
	config    WatchConfig
	onBatch   BatchFunc

	mu      sync.Mutex
	batches int
	done    chan struct{}
	once    sync.Once
	running bool
}

// NewWatcher creates a watcher for target.
func NewWatcher(tester *probe.Tester, target probe.Target, cfg WatchConfig, onBatch BatchFunc) (*Watcher, error) {
	if cfg.Every <= 0 {
		return nil, fmt.Errorf("watch interval must be positive, got %s", cfg.Every)
	}
	if cfg.Repeat < 1 {
		cfg.Repeat = 1
	}
	if cfg.Count < 0 {
		cfg.Count = 0
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Watcher{
		scheduler: scheduler,
		tester:    tester,
		target:    target,
		config:    cfg,
		onBatch:   onBatch,
		done:      make(chan struct{}),
	}, nil
}

// Start schedules the probe job, running the first batch immediately.
func (w *Watcher) Start(ctx context.Context) error {
	if w.running {
		return fmt.Errorf("watcher is already running")
	}

	options := []gocron.JobOption{
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	}
	if w.config.Count > 0 {
		options = append(options, gocron.WithLimitedRuns(uint(w.config.Count)))
	}

	_, err := w.scheduler.NewJob(
		gocron.DurationJob(w.config.Every),
		gocron.NewTask(func() {
			w.runBatch(ctx)
		}),
		options...,
	)
	if err != nil {
		return fmt.Errorf("failed to create probe job: %w", err)
	}

	w.scheduler.Start()
	w.running = true
	return nil
}

// Wait blocks until Count batches have finished or ctx is done.
func (w *Watcher) Wait(ctx context.Context) {
	select {
	case <-w.done:
	case <-ctx.Done():
	}
}

// Stop stops the scheduler, waiting for a running batch to return.
func (w *Watcher) Stop() error {
	if !w.running {
		return fmt.Errorf("watcher is not running")
	}
	if err := w.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	w.running = false
	return nil
}

// Batches returns how many batches have completed.
func (w *Watcher) Batches() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.batches
}

// Run starts the watcher, waits for it to finish and stops it.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	w.Wait(ctx)
	return w.Stop()
}

func (w *Watcher) runBatch(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	log := logger.WithComponent("watch")

	summary, err := w.tester.Run(ctx, w.target, w.config.Repeat, nil)
	if err != nil {
		log.Error().Err(err).Str("target", w.target.String()).Msg("Probe batch failed")
		return
	}

	w.mu.Lock()
	w.batches++
	batch := w.batches
	w.mu.Unlock()

	log.Debug().
		Int("batch", batch).
		Int("succeeded", summary.Succeeded).
		Int("attempts", summary.Attempts).
		Dur("duration", summary.Duration).
		Msg("Probe batch finished")

	if w.onBatch != nil {
		w.onBatch(batch, summary)
	}
	if w.config.Count > 0 && batch >= w.config.Count {
		w.once.Do(func() { close(w.done) })
	}
}
