package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunParallel_Success(t *testing.T) {
	t.Parallel()

	var count atomic.Int32
	task := func(_ context.Context) error {
		count.Add(1)
		return nil
	}

	err := RunParallel(context.Background(), []Task{
		{Name: "task1", Func: task},
		{Name: "task2", Func: task},
		{Name: "task3", Func: task},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), count.Load())
}

func TestRunParallel_EmptyTasks(t *testing.T) {
	t.Parallel()

	assert.NoError(t, RunParallel(context.Background(), nil))
	assert.NoError(t, RunParallel(context.Background(), []Task{}))
}

func TestRunParallel_ErrorCancelsSiblings(t *testing.T) {
	t.Parallel()

	expectedErr := errors.New("listen failed")
	var siblingCancelled atomic.Bool

	err := RunParallel(context.Background(), []Task{
		{Name: "ops server", Func: func(_ context.Context) error {
			return expectedErr
		}},
		{Name: "scan loop", Func: func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				siblingCancelled.Store(true)
				return nil
			case <-time.After(5 * time.Second):
				return errors.New("not cancelled")
			}
		}},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.Contains(t, err.Error(), "ops server: ")
	assert.True(t, siblingCancelled.Load())
}

func TestRunParallel_FirstErrorWins(t *testing.T) {
	t.Parallel()

	first := errors.New("first")
	second := errors.New("second")

	err := RunParallel(context.Background(), []Task{
		{Name: "a", Func: func(_ context.Context) error { return first }},
		{Name: "b", Func: func(ctx context.Context) error {
			<-ctx.Done()
			return second
		}},
	})

	assert.ErrorIs(t, err, first)
	assert.NotErrorIs(t, err, second)
}

func TestRunParallel_ParentCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- RunParallel(ctx, []Task{
			{Name: "loop", Func: func(ctx context.Context) error {
				close(started)
				<-ctx.Done()
				return nil
			}},
		})
	}()

	<-started
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunParallel did not return after cancel")
	}
}
