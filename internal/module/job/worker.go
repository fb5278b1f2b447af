package job

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config contains worker configuration.
type Config struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	StopTimeout  time.Duration `mapstructure:"stop_timeout"`
	Concurrency  int           `mapstructure:"concurrency"`
}

// DefaultConfig returns the default worker configuration.
func DefaultConfig() *Config {
	return &Config{
		PollInterval: 500 * time.Millisecond,
		StopTimeout:  3 * time.Second,
		Concurrency:  1,
	}
}

// Worker drains a queue on a single goroutine, one job at a time.
type Worker struct {
	mu sync.Mutex

	queue  *Queue
	runner Runner
	config *Config
	logger *zap.Logger

	stopping bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewWorker creates a worker.
func NewWorker(queue *Queue, runner Runner, logger *zap.Logger, config *Config) *Worker {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		queue:  queue,
		runner: runner,
		config: config,
		logger: logger.Named("worker"),
	}
}

// Start launches the worker goroutine. Calling Start on a running worker
// is a no-op.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.aliveLocked() {
		if w.stopping {
			return ErrWorkerStopping
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	w.stopping = false

	go w.loop(ctx, w.done)

	w.logger.Info("worker started", zap.Duration("poll_interval", w.config.PollInterval))
	return nil
}

// Stop signals the worker and waits up to timeout for the in-flight job
// to finish. It reports whether the goroutine exited in time.
func (w *Worker) Stop(timeout time.Duration) bool {
	w.mu.Lock()
	if !w.aliveLocked() {
		w.mu.Unlock()
		return true
	}
	w.stopping = true
	w.cancel()
	done := w.done
	w.mu.Unlock()

	if timeout <= 0 {
		timeout = w.config.StopTimeout
	}

	select {
	case <-done:
		w.logger.Info("worker stopped")
		return true
	case <-time.After(timeout):
		w.logger.Warn("worker did not stop in time", zap.Duration("timeout", timeout))
		return false
	}
}

// IsRunning reports whether the goroutine is alive and not asked to stop.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.aliveLocked() && !w.stopping
}

func (w *Worker) aliveLocked() bool {
	if w.done == nil {
		return false
	}
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

func (w *Worker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		if ctx.Err() != nil {
			return
		}
		j, ok := w.queue.Dequeue(ctx, w.config.PollInterval)
		if !ok {
			continue
		}
		w.process(j)
	}
}

// process runs one job. A running job is never cancelled; stop only
// prevents the next dequeue.
func (w *Worker) process(j *Job) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("job panicked",
				zap.String("job_id", j.ID),
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
			if err := j.Complete(nil, fmt.Errorf("job panicked: %v", r)); err != nil {
				w.logger.Debug("completion already fired", zap.String("job_id", j.ID))
			}
		}
	}()

	started := time.Now()
	resp := w.runner.Run(context.Background(), j.Request)
	if err := j.Complete(resp, nil); err != nil {
		w.logger.Warn("duplicate job completion ignored", zap.String("job_id", j.ID))
		return
	}

	w.logger.Debug("job processed",
		zap.String("job_id", j.ID),
		zap.Duration("duration", time.Since(started)))
}
