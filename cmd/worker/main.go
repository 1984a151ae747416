package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safaristay/internal/bootstrap"
	"safaristay/internal/config"
	"safaristay/internal/modules/payment"
	"safaristay/internal/notification"
	"safaristay/internal/pkg/logger"
)

// The worker delivers queued notifications from Kafka and runs the payment
// sweeper. Without Kafka brokers only the sweeper runs.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").WithField("error", err.Error()).Fatal("load config")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.WithField("error", err.Error()).Fatal("bootstrap")
	}

	sweeper, err := payment.NewSweeper(app.Payments, cfg.Payments.ReconcileSchedule, 0, log)
	if err != nil {
		log.WithField("error", err.Error()).Fatal("sweeper")
	}
	sweeper.Start()

	consumerDone := make(chan struct{})
	if cfg.Kafka.Enabled() {
		consumer := notification.NewConsumer(cfg.Kafka, app.Sender(), log)
		go func() {
			defer close(consumerDone)
			defer consumer.Close()
			if err := consumer.Consume(ctx); err != nil {
				log.WithField("error", err.Error()).Error("consumer stopped")
			}
		}()
	} else {
		log.Info("kafka not configured, notification consumer disabled")
		close(consumerDone)
	}

	<-ctx.Done()
	log.Info("worker stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sweeper.Stop(shutdownCtx)
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
	}
	if err := app.Close(shutdownCtx); err != nil {
		log.WithField("error", err.Error()).Error("shutdown")
		os.Exit(1)
	}
}
