package fetch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/0xmhha/forge-indexer-go/events"
	"github.com/0xmhha/forge-indexer-go/internal/constants"
)

// HeadResolver answers the current chain height, failing over between
// providers as needed
type HeadResolver interface {
	ResolveHead(ctx context.Context) (uint64, error)
}

// Applier rebuilds derived state from an ordered event sequence
type Applier interface {
	// Reset clears all derived state, keeping lookup caches
	Reset(ctx context.Context) error
	// Apply consumes the ordered sequence one event at a time
	Apply(ctx context.Context, evts []events.Event) (applied int, skipped int, err error)
}

// RunnerConfig controls the scan lifecycle
type RunnerConfig struct {
	// StartBlock is the fixed block every scan restarts from
	StartBlock uint64
	// Interval is the period between full re-scans
	Interval time.Duration
}

// Status is a snapshot of the runner for health checks and the read API
type Status struct {
	Running        bool
	StartBlock     uint64
	ChainHead      uint64
	LastScanStart  time.Time
	LastScanEnd    time.Time
	LastDuration   time.Duration
	EventsApplied  int
	EventsSkipped  int
	FailedRanges   int
	ScansCompleted uint64
	LastError      string
}

// Runner owns the scan lifecycle: an immediate scan at startup, then a fixed
// cron schedule. Every scan re-fetches from StartBlock and rebuilds derived
// state from scratch, so a missed or failed scan heals on the next run.
type Runner struct {
	scheduler *Scheduler
	head      HeadResolver
	applier   Applier
	config    *RunnerConfig
	logger    *zap.Logger
	bus       *events.Bus
	metrics   *Metrics

	cron    *cron.Cron
	running atomic.Bool

	mu     sync.RWMutex
	status Status
}

// NewRunner creates a scan runner
func NewRunner(scheduler *Scheduler, head HeadResolver, applier Applier, config *RunnerConfig, logger *zap.Logger) (*Runner, error) {
	if scheduler == nil {
		return nil, fmt.Errorf("scheduler cannot be nil")
	}
	if head == nil {
		return nil, fmt.Errorf("head resolver cannot be nil")
	}
	if applier == nil {
		return nil, fmt.Errorf("applier cannot be nil")
	}
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.Interval <= 0 {
		config.Interval = constants.DefaultScanInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		scheduler: scheduler,
		head:      head,
		applier:   applier,
		config:    config,
		logger:    logger,
		status:    Status{StartBlock: config.StartBlock},
	}, nil
}

// SetBus attaches a notification bus for scan-completed events
func (r *Runner) SetBus(bus *events.Bus) {
	r.bus = bus
}

// SetMetrics attaches Prometheus metrics
func (r *Runner) SetMetrics(metrics *Metrics) {
	r.metrics = metrics
}

// cronLogger adapts zap to the cron.Logger interface
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}

// Start runs an immediate scan and schedules periodic re-scans. The context
// bounds every scan; cancel it before Stop to interrupt a running scan.
func (r *Runner) Start(ctx context.Context) error {
	logger := cronLogger{sugar: r.logger.Sugar()}
	r.cron = cron.New(cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))

	spec := fmt.Sprintf("@every %s", r.config.Interval)
	if _, err := r.cron.AddFunc(spec, func() {
		if err := r.runScan(ctx); err != nil {
			r.logger.Error("scheduled scan failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule scan: %w", err)
	}

	// First scan now; the schedule takes over afterwards
	go func() {
		if err := r.runScan(ctx); err != nil {
			r.logger.Error("initial scan failed", zap.Error(err))
		}
	}()

	r.cron.Start()
	r.logger.Info("scan runner started",
		zap.Uint64("start_block", r.config.StartBlock),
		zap.Duration("interval", r.config.Interval))

	return nil
}

// Stop halts the schedule and waits for an in-flight cron-invoked scan
func (r *Runner) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
	r.logger.Info("scan runner stopped")
}

// RunOnce performs a single scan and returns its outcome
func (r *Runner) RunOnce(ctx context.Context) error {
	return r.runScan(ctx)
}

// Status returns a snapshot of the runner state
func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *Runner) runScan(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		r.logger.Debug("scan already in progress")
		return nil
	}
	defer r.running.Store(false)

	start := time.Now()
	r.mu.Lock()
	r.status.Running = true
	r.status.LastScanStart = start
	r.mu.Unlock()

	head, result, applied, skipped, err := r.scanOnce(ctx)

	duration := time.Since(start)
	if r.metrics != nil {
		r.metrics.ObserveScanDuration(duration)
	}

	failedRanges := 0
	if result != nil {
		failedRanges = len(result.FailedRanges)
	}

	r.mu.Lock()
	r.status.Running = false
	r.status.LastScanEnd = time.Now()
	r.status.LastDuration = duration
	if head > 0 {
		r.status.ChainHead = head
	}
	if err != nil {
		r.status.LastError = err.Error()
	} else {
		r.status.LastError = ""
		r.status.EventsApplied = applied
		r.status.EventsSkipped = skipped
		r.status.FailedRanges = failedRanges
		r.status.ScansCompleted++
	}
	r.mu.Unlock()

	if err != nil {
		return err
	}

	r.logger.Info("scan completed",
		zap.Uint64("from_block", r.config.StartBlock),
		zap.Uint64("to_block", head),
		zap.Int("events_applied", applied),
		zap.Int("events_skipped", skipped),
		zap.Int("failed_ranges", failedRanges),
		zap.Duration("duration", duration))

	if r.bus != nil {
		r.bus.Publish(&events.ScanCompleted{
			FromBlock:     r.config.StartBlock,
			ToBlock:       head,
			EventsApplied: applied,
			EventsSkipped: skipped,
			FailedRanges:  failedRanges,
			Duration:      duration,
			At:            time.Now(),
		})
	}

	return nil
}

// scanOnce performs one full fetch-reset-apply cycle
func (r *Runner) scanOnce(ctx context.Context) (head uint64, result *Result, applied, skipped int, err error) {
	head, err = r.head.ResolveHead(ctx)
	if err != nil {
		return 0, nil, 0, 0, fmt.Errorf("failed to resolve chain head: %w", err)
	}

	if head < r.config.StartBlock {
		r.logger.Info("chain head below start block, nothing to scan",
			zap.Uint64("head", head),
			zap.Uint64("start_block", r.config.StartBlock))
		return head, &Result{}, 0, 0, nil
	}

	result, err = r.scheduler.FetchRange(ctx, r.config.StartBlock, head)
	if err != nil {
		return head, nil, 0, 0, err
	}

	if err = r.applier.Reset(ctx); err != nil {
		return head, result, 0, 0, fmt.Errorf("failed to reset derived state: %w", err)
	}

	applied, skipped, err = r.applier.Apply(ctx, result.Events)
	if err != nil {
		return head, result, applied, skipped, fmt.Errorf("failed to apply events: %w", err)
	}

	return head, result, applied, skipped, nil
}
