package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"safaristay/internal/bootstrap"
	"safaristay/internal/config"
	"safaristay/internal/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").WithField("error", err.Error()).Fatal("load config")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if cfg.AppEnv == "prod" || cfg.AppEnv == "production" || cfg.AppEnv == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.WithField("error", err.Error()).Fatal("bootstrap")
	}

	if err := app.Serve(ctx); err != nil {
		log.WithField("error", err.Error()).Error("server stopped with error")
		os.Exit(1)
	}
	log.Info("server stopped")
}
