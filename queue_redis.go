package batchfetch

import (
	"fmt"

	"github.com/go-redis/redis"
	json "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"
)

// RedisQueue is a queue that store the task in redis. Follow FIFO rule.
//
// Keys live under the run id and are removed on Shutdown, so nothing
// outlives the run that created them.
type RedisQueue struct {
	id     string
	redis  *redis.Client
	logger *log.Logger

	redisKeyQueue string
}

// NewRedisQueue creates a redis queue namespaced by id
func NewRedisQueue(id string, redisOptions *redis.Options, logger *log.Logger) *RedisQueue {
	return &RedisQueue{
		id:     id,
		redis:  redis.NewClient(redisOptions),
		logger: logger,

		redisKeyQueue: fmt.Sprintf("{batchfetch:%s}:queue", id),
	}
}

// Ping checks the redis server is reachable
func (q *RedisQueue) Ping() error {
	if err := q.redis.Ping().Err(); err != nil {
		return fmt.Errorf("failed to reach redis, reason: %w", err)
	}
	return nil
}

// Shutdown removes the queue key and closes the connection
func (q *RedisQueue) Shutdown() {
	if err := q.redis.Del(q.redisKeyQueue).Err(); err != nil {
		q.logger.Errorf("Fail to remove redis queue %s, reason: %v", q.redisKeyQueue, err)
	}
	if err := q.redis.Close(); err != nil {
		q.logger.Errorf("Fail to close redis connection, reason: %v", err)
	}
}

// Enqueue add a task at the tail of the queue
func (q *RedisQueue) Enqueue(task *Task) error {
	taskInBytes, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("fail to marshal a task, reason: %w", err)
	}

	if err := q.redis.RPush(q.redisKeyQueue, taskInBytes).Err(); err != nil {
		return fmt.Errorf("fail to enqueue a task, reason: %w", err)
	}

	return nil
}

// Pop returns a task in the front most and remove it from the queue
func (q *RedisQueue) Pop() (*Task, error) {
	rawTask, err := q.redis.LPop(q.redisKeyQueue).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fail to pop a task from the queue, reason: %w", err)
	}

	task := new(Task)
	if err := json.Unmarshal([]byte(rawTask), task); err != nil {
		return nil, fmt.Errorf("fail to unmarshal a task, reason: %w", err)
	}

	return task, nil
}

// Len returns the length of the queue
func (q *RedisQueue) Len() (int64, error) {
	length, err := q.redis.LLen(q.redisKeyQueue).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get length of queue, reason: %w", err)
	}

	return length, nil
}
