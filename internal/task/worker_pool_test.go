package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerPool(t *testing.T) {
	queue := NewTaskQueue(1, nil)

	t.Run("uses config values", func(t *testing.T) {
		pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 3, TaskTimeout: time.Second}, setupTestLogger())
		assert.Equal(t, 3, pool.workerCount)
		assert.Equal(t, time.Second, pool.taskTimeout)
	})

	t.Run("invalid values use defaults", func(t *testing.T) {
		pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: -1}, nil)
		assert.Equal(t, 1, pool.workerCount)
		assert.Equal(t, DefaultWorkerPoolConfig().TaskTimeout, pool.taskTimeout)
	})
}

func TestWorkerPool_ProcessTask_Success(t *testing.T) {
	queue := NewTaskQueue(5, setupTestLogger())
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 2}, setupTestLogger())
	pool.Start()

	var executed atomic.Int32
	for i := 0; i < 5; i++ {
		task := newMockTask()
		task.execFn = func(ctx context.Context) error {
			executed.Add(1)
			return nil
		}
		require.NoError(t, queue.Enqueue(task))
	}

	// Closing the queue lets the workers drain it and exit
	queue.Close()

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for workers to drain the queue")
	}
	assert.Equal(t, int32(5), executed.Load())
}

func TestWorkerPool_ProcessTask_Error(t *testing.T) {
	queue := NewTaskQueue(1, setupTestLogger())
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())

	errorHandled := make(chan error, 1)
	pool.SetErrorHandler(func(task Task, err error) {
		errorHandled <- err
	})
	pool.Start()
	defer pool.Stop()

	expectedErr := errors.New("test error")
	task := newMockTask()
	task.execFn = func(ctx context.Context) error {
		return expectedErr
	}
	require.NoError(t, queue.Enqueue(task))

	select {
	case err := <-errorHandled:
		assert.ErrorIs(t, err, expectedErr)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for error handler")
	}
}

func TestWorkerPool_ProcessTask_Panic(t *testing.T) {
	queue := NewTaskQueue(2, setupTestLogger())
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())

	errorHandled := make(chan error, 1)
	pool.SetErrorHandler(func(task Task, err error) {
		errorHandled <- err
	})
	pool.Start()
	defer pool.Stop()

	task := newMockTask()
	task.execFn = func(ctx context.Context) error {
		panic("boom")
	}
	require.NoError(t, queue.Enqueue(task))

	select {
	case err := <-errorHandled:
		assert.Contains(t, err.Error(), "boom")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for panic to be reported")
	}

	// The worker survives the panic
	next := make(chan struct{})
	follow := newMockTask()
	follow.execFn = func(ctx context.Context) error {
		close(next)
		return nil
	}
	require.NoError(t, queue.Enqueue(follow))

	select {
	case <-next:
	case <-time.After(time.Second):
		t.Fatal("worker did not recover after panic")
	}
}

func TestWorkerPool_TaskTimeout(t *testing.T) {
	queue := NewTaskQueue(1, setupTestLogger())
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1, TaskTimeout: 20 * time.Millisecond}, setupTestLogger())

	errorHandled := make(chan error, 1)
	pool.SetErrorHandler(func(task Task, err error) {
		errorHandled <- err
	})
	pool.Start()
	defer pool.Stop()

	task := newMockTask()
	task.execFn = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	require.NoError(t, queue.Enqueue(task))

	select {
	case err := <-errorHandled:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("task was not cancelled by its timeout")
	}
}

func TestWorkerPool_StopCancelsInFlightTasks(t *testing.T) {
	queue := NewTaskQueue(1, setupTestLogger())
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1, TaskTimeout: time.Minute}, setupTestLogger())
	pool.Start()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	task := newMockTask()
	task.execFn = func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}
	require.NoError(t, queue.Enqueue(task))
	<-started

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
	select {
	case <-cancelled:
	default:
		t.Fatal("in-flight task was not cancelled")
	}
}
