package batchfetch

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalQueue_FIFO(t *testing.T) {
	queue := NewLocalQueue()
	first := &Task{URL: "https://a.example/1", Index: 1}
	second := &Task{URL: "https://a.example/2", Index: 2}

	require.NoError(t, queue.Enqueue(first))
	require.NoError(t, queue.Enqueue(second))

	length, err := queue.Len()
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)

	task, err := queue.Pop()
	require.NoError(t, err)
	assert.Same(t, first, task)

	task, err = queue.Pop()
	require.NoError(t, err)
	assert.Same(t, second, task)

	task, err = queue.Pop()
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestLocalQueue_Shutdown(t *testing.T) {
	queue := NewLocalQueue()
	require.NoError(t, queue.Enqueue(&Task{URL: "https://a.example/1", Index: 1}))

	queue.Shutdown()

	assert.ErrorIs(t, queue.Enqueue(&Task{URL: "https://a.example/2", Index: 2}), ErrQueueShutdown)
	task, err := queue.Pop()
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestRedisQueue_FIFOAndCleanup(t *testing.T) {
	mr := miniredis.RunT(t)
	queue := NewRedisQueue("run-1", &redis.Options{Addr: mr.Addr()}, quietLogger())
	require.NoError(t, queue.Ping())

	require.NoError(t, queue.Enqueue(&Task{URL: "https://a.example/1", Index: 1}))
	require.NoError(t, queue.Enqueue(&Task{URL: "https://a.example/2", Index: 2}))

	length, err := queue.Len()
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)
	assert.True(t, mr.Exists("{batchfetch:run-1}:queue"))

	task, err := queue.Pop()
	require.NoError(t, err)
	assert.Equal(t, &Task{URL: "https://a.example/1", Index: 1}, task)

	queue.Shutdown()
	assert.False(t, mr.Exists("{batchfetch:run-1}:queue"))
}

func TestRedisQueue_PopEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	queue := NewRedisQueue("run-2", &redis.Options{Addr: mr.Addr()}, quietLogger())
	defer queue.Shutdown()

	task, err := queue.Pop()
	require.NoError(t, err)
	assert.Nil(t, task)
}
