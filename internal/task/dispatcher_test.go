package task

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsTasks(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]struct{})
	d, err := NewDispatcher(2, func(ctx context.Context, task Task) error {
		mu.Lock()
		defer mu.Unlock()
		seen[task.EmailRefID] = struct{}{}
		return nil
	})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := d.Dispatch("alice", fmt.Sprintf("email-%d", i))
		require.NoError(t, err)
	}
	d.Close()

	require.Len(t, seen, 10)
	require.EqualValues(t, 0, d.Pending())
}

func TestDispatcherListenerObservesFailures(t *testing.T) {
	var mu sync.Mutex
	var results []Result
	handlerErr := fmt.Errorf("ingest blew up")
	d, err := NewDispatcher(1, func(ctx context.Context, task Task) error {
		if task.EmailRefID == "bad" {
			return handlerErr
		}
		return nil
	}, WithListener(func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
	}))
	require.NoError(t, err)

	_, err = d.Dispatch("alice", "good")
	require.NoError(t, err)
	_, err = d.Dispatch("alice", "bad")
	require.NoError(t, err)
	d.Close()

	require.Len(t, results, 2)
	failed := 0
	for _, r := range results {
		require.GreaterOrEqual(t, r.Duration, time.Duration(0))
		if r.Err != nil {
			failed++
			require.Equal(t, "bad", r.Task.EmailRefID)
		}
	}
	require.Equal(t, 1, failed)
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d, err := NewDispatcher(1, func(ctx context.Context, task Task) error { return nil })
	require.NoError(t, err)
	d.Close()

	_, err = d.Dispatch("alice", "email-1")
	require.Error(t, err)
}

func TestDispatcherValidation(t *testing.T) {
	_, err := NewDispatcher(0, func(ctx context.Context, task Task) error { return nil })
	require.Error(t, err)

	_, err = NewDispatcher(1, nil)
	require.Error(t, err)
}

func TestDispatcherTaskIDsUnique(t *testing.T) {
	d, err := NewDispatcher(1, func(ctx context.Context, task Task) error { return nil })
	require.NoError(t, err)
	defer d.Close()

	first, err := d.Dispatch("alice", "email-1")
	require.NoError(t, err)
	second, err := d.Dispatch("alice", "email-1")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
