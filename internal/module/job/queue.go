package job

import (
	"context"
	"sync"
	"time"
)

// Queue is an unbounded in-memory FIFO. Enqueue never blocks and each job
// is handed to exactly one Dequeue caller.
type Queue struct {
	mu     sync.Mutex
	items  []*Job
	notify chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Enqueue appends a job.
func (q *Queue) Enqueue(j *Job) {
	q.mu.Lock()
	q.items = append(q.items, j)
	q.mu.Unlock()
	q.signal()
}

// Dequeue waits up to timeout for a job. It returns false on timeout or
// when ctx is done.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, bool) {
	if j, ok := q.pop(); ok {
		return j, true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-q.notify:
			if j, ok := q.pop(); ok {
				return j, true
			}
		case <-timer.C:
			return q.pop()
		case <-ctx.Done():
			return nil, false
		}
	}
}

// Len returns the number of queued jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) pop() (*Job, bool) {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return nil, false
	}
	j := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	remaining := len(q.items)
	q.mu.Unlock()

	// Pass the wake-up on so another waiter sees the rest.
	if remaining > 0 {
		q.signal()
	}
	return j, true
}

func (q *Queue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
