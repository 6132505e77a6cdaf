package batchfetch

import (
	"context"
	"sync"

	"github.com/go-redis/redis"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Engine runs a batch of tasks through a bounded pool of fetchers.
type Engine struct {
	Config *Config
	RunID  string

	logger    *log.Logger
	transport *Transport
	fetcher   *Fetcher
	queue     Queue
	observer  Observer
}

// Option customizes an engine at construction
type Option func(*Engine)

// WithObserver installs the progress observer. The default ignores progress.
func WithObserver(observer Observer) Option {
	return func(e *Engine) {
		e.observer = observer
	}
}

// WithQueue installs a task queue instead of the configured one
func WithQueue(queue Queue) Option {
	return func(e *Engine) {
		e.queue = queue
	}
}

// NewEngine builds the transport, fetcher and queue described by config.
// Invalid request settings are replaced by their defaults. The output
// directory must exist before Run is called.
func NewEngine(config *Config, options ...Option) (*Engine, error) {
	if config.Logger == nil {
		config.Logger = NewLogger(config.Log)
	}
	config.checkConfig()

	e := &Engine{
		Config:   config,
		RunID:    uuid.New().String(),
		logger:   config.Logger,
		observer: NopObserver{},
	}

	for _, option := range options {
		option(e)
	}

	if e.queue == nil {
		queue, err := e.newQueue()
		if err != nil {
			return nil, err
		}
		e.queue = queue
	}

	e.transport = NewTransport(config)
	e.fetcher = NewFetcher(e.transport, config.Output.Dir, config.Logger)

	e.logger.WithField("run", e.RunID).Debugf("Engine ready, concurrency=%d", config.Request.Concurrency)
	return e, nil
}

func (e *Engine) newQueue() (Queue, error) {
	if e.Config.Queue.RedisAddr == "" {
		return NewLocalQueue(), nil
	}

	queue := NewRedisQueue(e.RunID, &redis.Options{
		Addr:     e.Config.Queue.RedisAddr,
		Password: e.Config.Queue.RedisPassword,
		DB:       e.Config.Queue.RedisDB,
	}, e.logger)
	if err := queue.Ping(); err != nil {
		queue.Shutdown()
		return nil, err
	}
	e.logger.Debugf("Use redis queue at %s", e.Config.Queue.RedisAddr)
	return queue, nil
}

// Run starts every task and returns their outcomes in completion order.
// At most Config.Request.Concurrency tasks are in flight at once. The
// channel is closed after the last outcome.
func (e *Engine) Run(ctx context.Context, tasks []*Task) <-chan *Outcome {
	outcomes := make(chan *Outcome, len(tasks))
	if len(tasks) == 0 {
		close(outcomes)
		return outcomes
	}

	go e.dispatch(ctx, tasks, outcomes)
	return outcomes
}

// Start runs tasks to completion and aggregates their outcomes
func (e *Engine) Start(ctx context.Context, tasks []*Task) *ResultSet {
	results := Aggregate(e.Run(ctx, tasks))
	results.RunID = e.RunID
	if len(tasks) > 0 {
		e.observer.Finished(results)
	}
	return results
}

// Shutdown releases the queue and pooled connections
func (e *Engine) Shutdown() {
	e.queue.Shutdown()
	e.transport.Close()
}

func (e *Engine) dispatch(ctx context.Context, tasks []*Task, outcomes chan<- *Outcome) {
	defer close(outcomes)

	total := len(tasks)
	e.observer.Started(total)

	// Tasks the queue did not take, or never handed back, are run
	// directly so that each task still gets its outcome.
	pending := make(map[string][]*Task, total)
	for _, task := range tasks {
		pending[task.HashCode()] = append(pending[task.HashCode()], task)
		if err := e.queue.Enqueue(task); err != nil {
			e.logger.Errorf("Fail to add task %s to queue, reason: %v", task, err)
		}
	}
	take := func(hashCode string) *Task {
		waiting := pending[hashCode]
		if len(waiting) == 0 {
			return nil
		}
		if len(waiting) == 1 {
			delete(pending, hashCode)
		} else {
			pending[hashCode] = waiting[1:]
		}
		return waiting[0]
	}

	var (
		group errgroup.Group
		mutex sync.Mutex
		done  int
	)
	group.SetLimit(e.Config.Request.Concurrency)

	submit := func(task *Task) {
		e.logger.Debugf("Run task %s", task)
		group.Go(func() error {
			outcome := e.fetcher.Fetch(ctx, task)

			mutex.Lock()
			defer mutex.Unlock()
			done++
			outcomes <- outcome
			e.observer.Completed(done, total, outcome)
			return nil
		})
	}

	for {
		queued, err := e.queue.Pop()
		if err != nil {
			e.logger.Errorf("Fail to retrieve a task from the queue, reason: %v", err)
			break
		}
		if queued == nil {
			break
		}
		task := take(queued.HashCode())
		if task == nil {
			e.logger.Warnf("Ignore unknown or repeated task %s", queued)
			continue
		}
		submit(task)
	}

	for _, task := range tasks {
		if leftover := take(task.HashCode()); leftover != nil {
			e.logger.Warnf("Task %s was not returned by the queue, run it directly", leftover)
			submit(leftover)
		}
	}

	if err := group.Wait(); err != nil {
		e.logger.Errorf("Unexpected worker error: %v", err)
	}
	e.logger.Infof("No new tasks to be run. %d task(s) finished", done)
}
