package resume

import (
	"context"
	"errors"
	"fmt"

	"github.com/feichai0017/interview-practice/config"
	"github.com/feichai0017/interview-practice/internal/agent"
	"github.com/feichai0017/interview-practice/internal/utils/validator"
	"github.com/feichai0017/interview-practice/pkg/cache"
	"github.com/feichai0017/interview-practice/pkg/logger"
	"github.com/feichai0017/interview-practice/pkg/queue"
	"github.com/feichai0017/interview-practice/pkg/session"
	"github.com/feichai0017/interview-practice/pkg/storage"
)

// Runtime is a fully wired ResumeService plus the resources it holds.
type Runtime struct {
	Service  *ResumeService
	Queue    *queue.AsynqQueue
	Sessions *session.Client
	factory  *agent.ProcessorFactory
}

// Close releases the queue connections and parsers.
func (r *Runtime) Close() error {
	return errors.Join(r.Queue.Close(), r.factory.Close())
}

// GetService wires the resume service from cfg.
func GetService(ctx context.Context, cfg *config.AppConfig, log logger.Logger) (*Runtime, error) {
	store, err := storage.NewStorage(ctx, storage.StorageType(cfg.Storage.Type), log.Named("storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	q, err := queue.NewAsynqQueue(&queue.QueueConfig{
		RedisAddr:      cfg.Redis.Addr,
		RedisPassword:  cfg.Redis.Password,
		RedisDB:        cfg.Redis.DB,
		MaxRetries:     0,
		ProcessTimeout: cfg.Extraction.ProcessTimeout,
		StatusTTL:      cfg.Storage.Retention,
	}, log.Named("queue"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}

	factory := agent.NewProcessorFactory(log, cfg.Extraction.MaxWorkers)
	pipeline, err := NewPipeline(factory, log, cfg.Extraction.MaxFileSize)
	if err != nil {
		q.Close()
		return nil, err
	}

	var textCache cache.TextCache
	switch cfg.Extraction.Cache {
	case "memory":
		textCache = cache.NewMemoryCache()
	default:
		textCache = cache.NewRedisCache(q.Redis(), 0)
	}

	sessions := session.NewClient(session.Config{
		BaseURL: cfg.Session.BaseURL,
		Timeout: cfg.Session.Timeout,
	}, log.Named("session"))

	svcCfg := DefaultServiceConfig()
	svcCfg.MaxFileSize = cfg.Extraction.MaxFileSize
	svcCfg.ProcessTimeout = cfg.Extraction.ProcessTimeout
	svcCfg.RetentionPeriod = cfg.Storage.Retention
	svcCfg.MaxConcurrent = cfg.Worker.Concurrency

	vcfg := validator.DefaultConfig()
	vcfg.MaxFileSize = cfg.Extraction.MaxFileSize

	svc := NewService(Deps{
		Pipeline:  pipeline,
		Queue:     q,
		Storage:   store,
		Cache:     textCache,
		Sessions:  sessions,
		Validator: validator.NewDocumentValidator(log.Named("validator"), vcfg),
	}, log, svcCfg)

	return &Runtime{Service: svc, Queue: q, Sessions: sessions, factory: factory}, nil
}
