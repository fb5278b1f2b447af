package job

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pool runs several workers against one queue.
type Pool struct {
	workers []*Worker
	logger  *zap.Logger
}

// NewPool creates config.Concurrency workers sharing queue.
func NewPool(queue *Queue, runner Runner, logger *zap.Logger, config *Config) *Pool {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	n := max(1, config.Concurrency)

	workers := make([]*Worker, n)
	for i := range workers {
		workers[i] = NewWorker(queue, runner, logger.With(zap.Int("worker", i)), config)
	}
	return &Pool{workers: workers, logger: logger.Named("worker-pool")}
}

// Start starts every worker.
func (p *Pool) Start() error {
	for i, w := range p.workers {
		if err := w.Start(); err != nil {
			return fmt.Errorf("start worker %d: %w", i, err)
		}
	}
	return nil
}

// Stop stops all workers concurrently, each bounded by timeout.
func (p *Pool) Stop(timeout time.Duration) error {
	var g errgroup.Group
	for i, w := range p.workers {
		g.Go(func() error {
			if !w.Stop(timeout) {
				return fmt.Errorf("worker %d did not stop within %s", i, timeout)
			}
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		p.logger.Warn("pool stop incomplete", zap.Error(err))
	}
	return err
}

// IsRunning reports whether any worker is running.
func (p *Pool) IsRunning() bool {
	for _, w := range p.workers {
		if w.IsRunning() {
			return true
		}
	}
	return false
}

// Running returns the number of running workers.
func (p *Pool) Running() int {
	n := 0
	for _, w := range p.workers {
		if w.IsRunning() {
			n++
		}
	}
	return n
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}
