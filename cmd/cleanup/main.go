package main

import (
	"context"
	"flag"
	"time"

	"safaristay/internal/config"
	"safaristay/internal/database"
	"safaristay/internal/pkg/logger"
	"safaristay/internal/repository"
)

func main() {
	retention := flag.Duration("retention", 30*24*time.Hour, "keep resolved dead letters newer than this")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").WithField("error", err.Error()).Fatal("load config")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.WithField("error", err.Error()).Fatal("db connect failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := repository.NewUnresolvedRepository(db).PurgeResolved(ctx, time.Now().Add(-*retention))
	if err != nil {
		log.WithField("error", err.Error()).Fatal("cleanup unresolved_notifications failed")
	}
	log.WithField("unresolved_notifications", n).Info("cleanup completed")
}
