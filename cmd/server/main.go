package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/interview-practice/api/handlers"
	"github.com/feichai0017/interview-practice/api/routes"
	"github.com/feichai0017/interview-practice/config"
	"github.com/feichai0017/interview-practice/internal/service/interview"
	"github.com/feichai0017/interview-practice/internal/service/report"
	"github.com/feichai0017/interview-practice/internal/service/resume"
	"github.com/feichai0017/interview-practice/pkg/logger"
)

func main() {
	cfg := config.GetAppConfig()

	log, err := logger.NewLogger(
		logger.WithLevel(cfg.Log.Level),
		logger.WithEncoding(cfg.Log.Encoding),
		logger.WithOutputPaths(append(cfg.Log.OutputPaths, "logs/app.log")),
		logger.WithService("interview-api"),
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
		log.Fatal("Failed to get resume service", logger.Error(err))
	}
	defer rt.Close()

	reportService := report.NewService(report.NewEngine(log.Named("layout")), log.Named("report"))
	interviewService := interview.NewService(rt.Sessions, log.Named("interview"))

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	h := handlers.NewHandlers(rt.Service, reportService, interviewService, log)
	routes.SetupRoutes(r, h, log, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("Server starting", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}
