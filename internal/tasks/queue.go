// Package tasks runs best-effort side effects (search reindex, subscriber
// mail) off the request path. Failures are logged, never propagated; a full
// queue drops the task rather than blocking the caller.
package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

type Queue struct {
	mu      sync.RWMutex
	ch      chan Task
	wg      sync.WaitGroup
	timeout time.Duration
	once    sync.Once
	closed  bool
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 256
	}
	q := &Queue{
		ch:      make(chan Task, size),
		timeout: 30 * time.Second,
	}
	q.wg.Add(1)
	go q.worker()
	return q
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for task := range q.ch {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		if err := task.Run(ctx); err != nil {
			slog.Warn("background task failed", "task", task.Name, "error", err)
		}
		cancel()
	}
}

// Enqueue never blocks. Dropped tasks are logged; the primary write has
// already committed by the time its side effects are queued. Enqueue after
// Close drops the task instead of sending on the closed channel.
func (q *Queue) Enqueue(name string, run func(ctx context.Context) error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		slog.Warn("task queue closed, dropping task", "task", name)
		return
	}
	select {
	case q.ch <- Task{Name: name, Run: run}:
	default:
		slog.Warn("task queue full, dropping task", "task", name)
	}
}

// Close stops accepting tasks and drains the queue.
func (q *Queue) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.ch)
		q.mu.Unlock()
	})
	q.wg.Wait()
}
