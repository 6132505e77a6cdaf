package batchfetch

import (
	"errors"
)

var (
	// ErrQueueShutdown indicates the queue has been shut down and accepts no task
	ErrQueueShutdown = errors.New("queue has been shut down")
)

// Queue defines a FIFO task queue the engine draws its work from
type Queue interface {
	// Shutdown releases whatever the queue holds. Enqueue fails afterwards.
	Shutdown()

	// Enqueue appends a task at the tail of the queue.
	Enqueue(task *Task) error

	// Pop removes and returns the front-most task, or nil when the
	// queue is empty.
	Pop() (*Task, error)

	// Len returns the amount of tasks in the queue.
	Len() (int64, error)
}
