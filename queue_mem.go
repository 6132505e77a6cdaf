package batchfetch

import (
	"container/list"
	"sync"
)

// LocalQueue holds tasks in memory. Follow FIFO rule.
type LocalQueue struct {
	mutex    sync.Mutex
	items    *list.List
	shutdown bool
}

// NewLocalQueue creates a queue which basic storage is a double linked list
func NewLocalQueue() *LocalQueue {
	return &LocalQueue{
		items: list.New(),
	}
}

// Shutdown drops remaining tasks
func (q *LocalQueue) Shutdown() {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.shutdown = true
	q.items.Init()
}

// Enqueue add a task at the tail of the queue
func (q *LocalQueue) Enqueue(task *Task) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.shutdown {
		return ErrQueueShutdown
	}
	q.items.PushBack(task)
	return nil
}

// Pop returns the task in the front most and remove it from the queue
func (q *LocalQueue) Pop() (*Task, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.items.Len() == 0 {
		return nil, nil
	}

	return q.items.Remove(q.items.Front()).(*Task), nil
}

// Len returns the length of the queue
func (q *LocalQueue) Len() (int64, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return int64(q.items.Len()), nil
}
