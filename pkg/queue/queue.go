// pkg/queue/queue.go
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/feichai0017/interview-practice/pkg/logger"
)

// TaskTypeResumeExtract is the asynq type of an asynchronous resume extraction.
const TaskTypeResumeExtract = "resume:extract"

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Queues lists the asynq queues with their weights.
var Queues = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
	QueueLow:      1,
}

// Status values stored in TaskStatus.Status.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// ErrTaskNotFound is returned when neither the status store nor asynq knows the task.
var ErrTaskNotFound = errors.New("task not found")

type Queue interface {
	Enqueue(ctx context.Context, task *Task) error
	GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error)
	CancelTask(ctx context.Context, taskID string) error
	SaveStatus(ctx context.Context, status *TaskStatus) error
	Close() error
}

type Task struct {
	ID        string                 `json:"id"`
	SessionID string                 `json:"sessionId,omitempty"`
	Type      string                 `json:"type"`
	Priority  int                    `json:"priority"`
	Payload   map[string]interface{} `json:"payload"`
	Metadata  map[string]string      `json:"metadata"`
	CreatedAt time.Time              `json:"createdAt"`
}

// PayloadString returns Payload[key] when it is a string.
func (t *Task) PayloadString(key string) string {
	if t.Payload == nil {
		return ""
	}
	v, _ := t.Payload[key].(string)
	return v
}

// TaskStatus is what the status store keeps for a task. Progress is 0..100.
type TaskStatus struct {
	TaskID     string    `json:"taskId"`
	Status     string    `json:"status"`
	Stage      string    `json:"stage,omitempty"`
	Progress   float64   `json:"progress"`
	Error      string    `json:"error,omitempty"`
	ErrorKind  string    `json:"errorKind,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// Terminal reports whether the task will not change any more.
func (s *TaskStatus) Terminal() bool {
	switch s.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	redis     *redis.Client
	cfg       *QueueConfig
	logger    logger.Logger
}

type QueueConfig struct {
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	MaxRetries     int
	ProcessTimeout time.Duration
	StatusTTL      time.Duration
}

func DefaultConfig() *QueueConfig {
	return &QueueConfig{
		RedisAddr:      "localhost:6379",
		RedisDB:        0,
		MaxRetries:     0,
		ProcessTimeout: 5 * time.Minute,
		StatusTTL:      24 * time.Hour,
	}
}

// RedisOpt returns the asynq connection options for cfg.
func (cfg *QueueConfig) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

func NewAsynqQueue(cfg *QueueConfig, log logger.Logger) (*AsynqQueue, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.StatusTTL <= 0 {
		cfg.StatusTTL = 24 * time.Hour
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	redisOpt := cfg.RedisOpt()
	return &AsynqQueue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		redis:     redisClient,
		cfg:       cfg,
		logger:    log,
	}, nil
}

// Redis exposes the status store connection so other stores can share it.
func (q *AsynqQueue) Redis() *redis.Client {
	return q.redis
}

func (q *AsynqQueue) Enqueue(ctx context.Context, task *Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	opts := []asynq.Option{
		asynq.MaxRetry(q.cfg.MaxRetries),
		asynq.Timeout(q.cfg.ProcessTimeout),
		asynq.TaskID(task.ID),
		asynq.Queue(queueFor(task.Priority)),
	}

	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(task.Type, payload), opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	task.ID = info.ID
	return nil
}

func queueFor(priority int) string {
	switch priority {
	case 1:
		return QueueCritical
	case 2:
		return QueueDefault
	default:
		return QueueLow
	}
}

func statusKey(taskID string) string {
	return fmt.Sprintf("task_status:%s", taskID)
}

// GetTaskStatus prefers the stored status and falls back to asynq's view of the task.
func (q *AsynqQueue) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	data, err := q.redis.Get(ctx, statusKey(taskID)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get status from redis: %w", err)
	}
	if err == nil {
		var status TaskStatus
		if err := json.Unmarshal(data, &status); err != nil {
			return nil, fmt.Errorf("failed to unmarshal status: %w", err)
		}
		return &status, nil
	}

	var info *asynq.TaskInfo
	for name := range Queues {
		if info, err = q.inspector.GetTaskInfo(name, taskID); err == nil {
			break
		}
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	status := convertAsynqStatus(info)
	if err := q.SaveStatus(ctx, status); err != nil {
		q.logger.Warn("Failed to save status",
			logger.String("taskId", taskID),
			logger.Error(err),
		)
	}
	return status, nil
}

// CancelTask removes a task that has not started yet and marks it cancelled.
func (q *AsynqQueue) CancelTask(ctx context.Context, taskID string) error {
	var lastErr error
	for name := range Queues {
		err := q.inspector.DeleteTask(name, taskID)
		if err == nil {
			now := time.Now()
			return q.SaveStatus(ctx, &TaskStatus{
				TaskID:     taskID,
				Status:     StatusCancelled,
				UpdatedAt:  now,
				FinishedAt: now,
			})
		}
		lastErr = err
	}
	return fmt.Errorf("failed to cancel task: %w", lastErr)
}

func (q *AsynqQueue) SaveStatus(ctx context.Context, status *TaskStatus) error {
	if status.UpdatedAt.IsZero() {
		status.UpdatedAt = time.Now()
	}
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	if err := q.redis.Set(ctx, statusKey(status.TaskID), data, q.cfg.StatusTTL).Err(); err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}
	return nil
}

func (q *AsynqQueue) Close() error {
	var errs []error
	if err := q.client.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := q.inspector.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := q.redis.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func convertAsynqStatus(info *asynq.TaskInfo) *TaskStatus {
	status := &TaskStatus{
		TaskID:    info.ID,
		Status:    StatusPending,
		StartedAt: info.NextProcessAt,
		UpdatedAt: time.Now(),
	}

	switch info.State {
	case asynq.TaskStateActive:
		status.Status = StatusRunning
	case asynq.TaskStateCompleted:
		status.Status = StatusCompleted
		status.Progress = 100
		status.FinishedAt = info.CompletedAt
	case asynq.TaskStateRetry, asynq.TaskStateArchived:
		status.Status = StatusFailed
		status.Error = info.LastErr
	}
	return status
}
