package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFunc is one run of a periodic task
type TaskFunc func(ctx context.Context) error

// PeriodicConfig holds configuration for a periodic task
type PeriodicConfig struct {
	// Name identifies the task in logs
	Name string

	// Interval is the pause between runs
	Interval time.Duration

	// Timeout bounds a single run. Zero means the run is bounded only by Stop.
	Timeout time.Duration
}

// PeriodicTask runs a TaskFunc on a fixed interval until stopped
type PeriodicTask struct {
	config PeriodicConfig
	task   TaskFunc
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	runs      int
	failures  int
}

// NewPeriodicTask creates a new periodic task
func NewPeriodicTask(config PeriodicConfig, task TaskFunc, logger *zap.Logger) (*PeriodicTask, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task is required", ErrInvalidConfig)
	}
	if config.Name == "" {
		config.Name = "periodic-task"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodicTask{
		config: config,
		task:   task,
		logger: logger.With(zap.String("task", config.Name)),
	}, nil
}

// Start starts the run loop. Starting a running task is a no-op.
func (p *PeriodicTask) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	p.wg.Add(1)
	go p.runLoop(ctx)

	p.logger.Info("Periodic task started", zap.Duration("interval", p.config.Interval))
	return nil
}

// Stop cancels the loop and waits for an in-flight run, or for ctx
func (p *PeriodicTask) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Periodic task stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns how many runs completed and how many of them failed
func (p *PeriodicTask) Stats() (runs, failures int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runs, p.failures
}

func (p *PeriodicTask) runLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *PeriodicTask) runOnce(ctx context.Context) {
	runCtx := ctx
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := p.task(runCtx)

	p.mu.Lock()
	p.runs++
	if err != nil {
		p.failures++
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("Periodic task failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return
	}
	p.logger.Debug("Periodic task completed", zap.Duration("elapsed", time.Since(start)))
}
