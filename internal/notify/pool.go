package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueFull is returned when the buffered channel is saturated; the
// caller logs and moves on, the payment itself is already committed.
var ErrQueueFull = errors.New("notification queue full")

// WorkerPool is the default Queue: a bounded channel drained by a fixed set
// of workers.
type WorkerPool struct {
	tasks   chan Task
	mailer  Mailer
	logger  *zap.Logger
	workers int
	timeout time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewWorkerPool(mailer Mailer, logger *zap.Logger, workers, buffer int, timeout time.Duration) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		tasks:   make(chan Task, buffer),
		mailer:  mailer,
		logger:  logger,
		workers: workers,
		timeout: timeout,
	}
}

func (p *WorkerPool) Start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.run()
		}
		p.logger.Info("notification worker pool started", zap.Int("workers", p.workers))
	})
}

// Enqueue never blocks the caller; when the buffer is full the task is
// dropped and reported.
func (p *WorkerPool) Enqueue(task Task) error {
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for in-flight deliveries to finish.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.tasks)
		p.wg.Wait()
	})
}

func (p *WorkerPool) run() {
	defer p.wg.Done()
	for task := range p.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		deliver(ctx, p.mailer, p.logger, task)
		cancel()
	}
}
