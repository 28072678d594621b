package csp

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var errManualLoopClosed = errors.New(`manual loop closed`)

// manualLoop is a deterministic Loop, that only runs tasks when told to.
type manualLoop struct {
	tasks  []func()
	mu     sync.Mutex
	closed bool
}

func (l *manualLoop) Submit(task func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errManualLoopClosed
	}
	l.tasks = append(l.tasks, task)
	return nil
}

// run runs tasks until there are none left.
func (l *manualLoop) run() {
	for {
		l.mu.Lock()
		if len(l.tasks) == 0 {
			l.mu.Unlock()
			return
		}
		task := l.tasks[0]
		l.tasks = l.tasks[1:]
		l.mu.Unlock()
		task()
	}
}

func (l *manualLoop) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

func mustResult[T any](t testing.TB, f *Future[T]) (T, error) {
	t.Helper()
	value, err, ok := f.Result()
	require.True(t, ok, `future is %s`, f.State())
	return value, err
}

func mustNew[T any](t testing.TB, loop Loop, cfg *Config[T]) *Channel[T] {
	t.Helper()
	c, err := New(loop, cfg)
	require.NoError(t, err)
	return c
}
