package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feichai0017/interview-practice/config"
	"github.com/feichai0017/interview-practice/internal/service/resume"
	"github.com/feichai0017/interview-practice/pkg/logger"
	"github.com/feichai0017/interview-practice/pkg/queue"
	"github.com/feichai0017/interview-practice/pkg/worker"
)

func main() {
	cfg := config.GetAppConfig()

	log, err := logger.NewLogger(
		logger.WithLevel(cfg.Log.Level),
		logger.WithEncoding(cfg.Log.Encoding),
		logger.WithOutputPaths(append(cfg.Log.OutputPaths, "logs/worker.log")),
		logger.WithService("interview-worker"),
		logger.WithDevelopment(cfg.Log.Development),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := resume.GetService(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to create resume service", logger.Error(err))
		os.Exit(1)
	}
	defer rt.Close()

	workerCfg := &worker.Config{
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		Concurrency:   cfg.Worker.Concurrency,
		Queues:        queue.Queues,
	}

	resumeWorker, err := worker.NewResumeWorker(workerCfg, rt.Service, log.Named("worker"), time.Hour)
	if err != nil {
		log.Error("Failed to create resume worker", logger.Error(err))
		os.Exit(1)
	}

	if err := resumeWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	resumeWorker.Stop()
	log.Info("Worker stopped")
}
