// Package tasks выполняет побочные действия вне запроса, который их вызвал.
package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrDispatcherClosed = errors.New("dispatcher is shut down")

type Task func(ctx context.Context) error

type job struct {
	name string
	fn   Task
}

// Submitter: часть диспетчера, от которой зависят сервисы.
type Submitter interface {
	Submit(name string, fn Task) bool
}

type Dispatcher struct {
	queue   chan job
	timeout time.Duration
	logger  *slog.Logger

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

const (
	defaultQueueSize   = 256
	defaultTaskTimeout = 30 * time.Second
)

func NewDispatcher(workers int, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		queue:   make(chan job, defaultQueueSize),
		timeout: defaultTaskTimeout,
		logger:  logger,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		d.run(j)
	}
}

func (d *Dispatcher) run(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("background task panicked", "task", j.name, "panic", r)
		}
	}()

	start := time.Now()
	if err := j.fn(ctx); err != nil {
		d.logger.Error("background task failed", "task", j.name, slog.Any("error", err))
		return
	}
	d.logger.Debug("background task done", "task", j.name, "duration", time.Since(start))
}

// Submit ставит задачу в очередь и никогда не блокирует вызывающего.
// Возвращает false, если очередь переполнена или диспетчер остановлен.
func (d *Dispatcher) Submit(name string, fn Task) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("background task rejected, dispatcher closed", "task", name)
		return false
	}
	select {
	case d.queue <- job{name: name, fn: fn}:
		return true
	default:
		d.logger.Warn("background task dropped, queue full", "task", name)
		return false
	}
}

// Shutdown перестаёт принимать задачи и ждёт завершения очереди или отмены ctx.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inline выполняет задачи синхронно в вызывающей горутине.
type Inline struct {
	Logger *slog.Logger
}

func (i Inline) Submit(name string, fn Task) bool {
	if err := fn(context.Background()); err != nil && i.Logger != nil {
		i.Logger.Error("background task failed", "task", name, slog.Any("error", err))
	}
	return true
}
