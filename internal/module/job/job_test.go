package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnimedia/server/internal/module/media"
)

// runnerFunc adapts a function to Runner.
type runnerFunc func(ctx context.Context, req *media.Request) *media.Response

func (f runnerFunc) Run(ctx context.Context, req *media.Request) *media.Response {
	return f(ctx, req)
}

func echoRunner() Runner {
	return runnerFunc(func(_ context.Context, req *media.Request) *media.Response {
		return &media.Response{ID: req.ID, Status: media.StatusCompleted}
	})
}

func testConfig() *Config {
	return &Config{PollInterval: 20 * time.Millisecond, StopTimeout: time.Second, Concurrency: 1}
}

func TestQueue(t *testing.T) {
	t.Run("fifo order", func(t *testing.T) {
		q := NewQueue()
		for i := 0; i < 3; i++ {
			q.Enqueue(New(fmt.Sprint(i), nil, nil))
		}
		assert.Equal(t, 3, q.Len())

		for i := 0; i < 3; i++ {
			j, ok := q.Dequeue(context.Background(), 10*time.Millisecond)
			require.True(t, ok)
			assert.Equal(t, fmt.Sprint(i), j.ID)
		}
		assert.Equal(t, 0, q.Len())
	})

	t.Run("times out when empty", func(t *testing.T) {
		q := NewQueue()
		start := time.Now()
		j, ok := q.Dequeue(context.Background(), 30*time.Millisecond)
		assert.False(t, ok)
		assert.Nil(t, j)
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("wakes waiting dequeuer", func(t *testing.T) {
		q := NewQueue()
		got := make(chan *Job, 1)
		go func() {
			j, _ := q.Dequeue(context.Background(), time.Second)
			got <- j
		}()
		time.Sleep(10 * time.Millisecond)
		q.Enqueue(New("late", nil, nil))

		select {
		case j := <-got:
			require.NotNil(t, j)
			assert.Equal(t, "late", j.ID)
		case <-time.After(time.Second):
			t.Fatal("dequeuer was not woken")
		}
	})

	t.Run("returns on context cancel", func(t *testing.T) {
		q := NewQueue()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, ok := q.Dequeue(ctx, time.Second)
		assert.False(t, ok)
	})

	t.Run("each job delivered exactly once", func(t *testing.T) {
		q := NewQueue()
		const total = 200
		for i := 0; i < total; i++ {
			q.Enqueue(New(fmt.Sprint(i), nil, nil))
		}

		var mu sync.Mutex
		seen := make(map[string]int)
		var wg sync.WaitGroup
		for c := 0; c < 8; c++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					j, ok := q.Dequeue(context.Background(), 20*time.Millisecond)
					if !ok {
						return
					}
					mu.Lock()
					seen[j.ID]++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Len(t, seen, total)
		for id, n := range seen {
			assert.Equal(t, 1, n, "job %s", id)
		}
	})
}

func TestJob_Complete(t *testing.T) {
	var calls int32
	j := New("j1", &media.Request{ID: "j1"}, func(*media.Response, error) {
		atomic.AddInt32(&calls, 1)
	})

	require.NoError(t, j.Complete(&media.Response{}, nil))
	assert.ErrorIs(t, j.Complete(&media.Response{}, nil), ErrAlreadyCompleted)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWorker(t *testing.T) {
	t.Run("processes queued jobs", func(t *testing.T) {
		q := NewQueue()
		w := NewWorker(q, echoRunner(), nil, testConfig())
		require.NoError(t, w.Start())
		defer w.Stop(time.Second)

		done := make(chan *media.Response, 1)
		q.Enqueue(New("j1", &media.Request{ID: "j1"}, func(resp *media.Response, err error) {
			assert.NoError(t, err)
			done <- resp
		}))

		select {
		case resp := <-done:
			assert.Equal(t, "j1", resp.ID)
		case <-time.After(2 * time.Second):
			t.Fatal("job was not processed")
		}
	})

	t.Run("survives a panicking runner", func(t *testing.T) {
		q := NewQueue()
		var n int32
		runner := runnerFunc(func(_ context.Context, req *media.Request) *media.Response {
			if atomic.AddInt32(&n, 1) == 1 {
				panic("boom")
			}
			return &media.Response{ID: req.ID, Status: media.StatusCompleted}
		})
		w := NewWorker(q, runner, nil, testConfig())
		require.NoError(t, w.Start())
		defer w.Stop(time.Second)

		results := make(chan error, 2)
		for _, id := range []string{"bad", "good"} {
			q.Enqueue(New(id, &media.Request{ID: id}, func(_ *media.Response, err error) {
				results <- err
			}))
		}

		first := <-results
		second := <-results
		require.Error(t, first)
		assert.Contains(t, first.Error(), "boom")
		assert.NoError(t, second)
		assert.True(t, w.IsRunning())
	})

	t.Run("start is idempotent and stop ends the loop", func(t *testing.T) {
		w := NewWorker(NewQueue(), echoRunner(), nil, testConfig())
		assert.False(t, w.IsRunning())

		require.NoError(t, w.Start())
		require.NoError(t, w.Start())
		assert.True(t, w.IsRunning())

		assert.True(t, w.Stop(time.Second))
		assert.False(t, w.IsRunning())
		assert.True(t, w.Stop(time.Second))

		require.NoError(t, w.Start())
		assert.True(t, w.IsRunning())
		assert.True(t, w.Stop(time.Second))
	})

	t.Run("stop waits for in-flight job", func(t *testing.T) {
		q := NewQueue()
		release := make(chan struct{})
		started := make(chan struct{})
		runner := runnerFunc(func(_ context.Context, req *media.Request) *media.Response {
			close(started)
			<-release
			return &media.Response{ID: req.ID, Status: media.StatusCompleted}
		})
		w := NewWorker(q, runner, nil, testConfig())
		require.NoError(t, w.Start())

		completed := make(chan struct{})
		q.Enqueue(New("slow", &media.Request{ID: "slow"}, func(*media.Response, error) { close(completed) }))
		<-started

		assert.False(t, w.Stop(30*time.Millisecond), "stop times out while job runs")
		assert.False(t, w.IsRunning())
		assert.ErrorIs(t, w.Start(), ErrWorkerStopping)

		close(release)
		<-completed
		assert.True(t, w.Stop(time.Second))
	})
}

func TestPool(t *testing.T) {
	q := NewQueue()
	cfg := testConfig()
	cfg.Concurrency = 3
	p := NewPool(q, echoRunner(), nil, cfg)

	require.NoError(t, p.Start())
	assert.Equal(t, 3, p.Size())
	assert.Equal(t, 3, p.Running())
	assert.True(t, p.IsRunning())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		q.Enqueue(New(fmt.Sprint(i), &media.Request{}, func(*media.Response, error) { wg.Done() }))
	}
	wg.Wait()

	require.NoError(t, p.Stop(time.Second))
	assert.False(t, p.IsRunning())
}

func TestStore(t *testing.T) {
	t.Run("queued then completed once", func(t *testing.T) {
		s := NewStore()
		rec, err := s.Create("j1", media.ModalityImage)
		require.NoError(t, err)
		assert.Equal(t, StatusQueued, rec.Status)

		_, err = s.Create("j1", media.ModalityImage)
		assert.ErrorIs(t, err, ErrDuplicateJob)

		rec, err = s.Complete("j1", &media.Response{ID: "j1", Status: media.StatusCompleted}, nil)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, rec.Status)
		assert.NotNil(t, rec.CompletedAt)

		_, err = s.Complete("j1", &media.Response{Status: media.StatusFailed}, nil)
		assert.ErrorIs(t, err, ErrAlreadyCompleted)

		got, err := s.Get("j1")
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, got.Status)
	})

	t.Run("failed response and run error", func(t *testing.T) {
		s := NewStore()
		_, _ = s.Create("a", media.ModalityVideo)
		_, _ = s.Create("b", media.ModalityVideo)

		rec, err := s.Complete("a", &media.Response{Status: media.StatusFailed, Error: "backend down"}, nil)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, rec.Status)
		assert.Equal(t, "backend down", rec.Error)

		rec, err = s.Complete("b", nil, errors.New("callback exploded"))
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, rec.Status)
		assert.Equal(t, "callback exploded", rec.Error)

		counts := s.Counts()
		assert.Equal(t, 2, counts[StatusFailed])
		assert.Equal(t, 0, counts[StatusQueued])
		assert.Len(t, s.List(), 2)
	})

	t.Run("unknown id", func(t *testing.T) {
		s := NewStore()
		_, err := s.Get("nope")
		assert.ErrorIs(t, err, ErrJobNotFound)
		_, err = s.Complete("nope", nil, nil)
		assert.ErrorIs(t, err, ErrJobNotFound)
	})
}
