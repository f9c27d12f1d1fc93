package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/interview-practice/internal/service/extraction"
	"github.com/feichai0017/interview-practice/pkg/logger"
	"github.com/feichai0017/interview-practice/pkg/queue"
)

// ExtractionHandler is the part of the resume service the worker drives.
type ExtractionHandler interface {
	HandleExtraction(ctx context.Context, task *queue.Task) error
	CleanupUploads(ctx context.Context) error
}

type ResumeWorker struct {
	BaseWorker
	service         ExtractionHandler
	cleanupInterval time.Duration
}

func NewResumeWorker(cfg *Config, service ExtractionHandler, log logger.Logger, cleanupInterval time.Duration) (*ResumeWorker, error) {
	if cfg.Concurrency <= 0 {
		return nil, fmt.Errorf("worker concurrency must be positive")
	}
	queues := cfg.Queues
	if len(queues) == 0 {
		queues = queue.Queues
	}

	server := asynq.NewServer(cfg.redisOpt(), asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      queues,
		IsFailure: func(err error) bool {
			// A rejected resume is an answer, not a worker fault.
			return extraction.KindOf(err) == ""
		},
	})

	w := &ResumeWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log,
			stopChan: make(chan struct{}),
		},
		service:         service,
		cleanupInterval: cleanupInterval,
	}
	w.mux.HandleFunc(queue.TaskTypeResumeExtract, w.handleResumeExtract)
	return w, nil
}

func (w *ResumeWorker) handleResumeExtract(ctx context.Context, t *asynq.Task) error {
	task, err := decodeTask(t.Payload())
	if err != nil {
		w.logger.Error("Failed to unmarshal task", logger.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	w.logger.Info("Processing resume task",
		logger.String("taskId", task.ID),
		logger.Any("metadata", task.Metadata),
	)

	if err := w.service.HandleExtraction(ctx, task); err != nil {
		var extErr *extraction.Error
		if errors.As(err, &extErr) {
			w.logger.Info("Resume rejected",
				logger.String("taskId", task.ID),
				logger.String("kind", string(extErr.Kind)),
			)
		}
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return nil
}

func decodeTask(payload []byte) (*queue.Task, error) {
	var task queue.Task
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	if task.ID == "" || task.Metadata == nil || task.Payload == nil {
		return nil, fmt.Errorf("invalid task data: missing required fields")
	}
	return &task, nil
}

func (w *ResumeWorker) Start(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start worker server: %w", err)
	}

	if w.cleanupInterval > 0 {
		go w.cleanupLoop(ctx)
	}

	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-w.stopChan:
		}
	}()
	return nil
}

func (w *ResumeWorker) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			if err := w.service.CleanupUploads(ctx); err != nil {
				w.logger.Error("Upload cleanup failed", logger.Error(err))
			}
		}
	}
}
