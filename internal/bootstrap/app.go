package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"safaristay/internal/cache"
	"safaristay/internal/config"
	"safaristay/internal/database"
	"safaristay/internal/diagnostics"
	"safaristay/internal/integrations/pesapal"
	"safaristay/internal/metrics"
	"safaristay/internal/middleware"
	"safaristay/internal/modules/admin"
	"safaristay/internal/modules/auth"
	"safaristay/internal/modules/booking"
	"safaristay/internal/modules/catalog"
	"safaristay/internal/modules/payment"
	"safaristay/internal/notification"
	"safaristay/internal/pkg/jwt"
	"safaristay/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

// App holds the process-wide dependencies shared by the api and worker
// binaries.
type App struct {
	Config  *config.Config
	Log     *logrus.Logger
	DB      *gorm.DB
	Redis   *cache.RedisCache
	Metrics *metrics.Metrics
	Ring    *diagnostics.Ring
	Tokens  *jwt.Service
	Gateway *pesapal.Client

	Bookings   *repository.BookingRepository
	Catalog    *repository.CatalogRepository
	Users      *repository.UserRepository
	Unresolved *repository.UnresolvedRepository
	Stats      *repository.StatsRepository

	Notifier *notification.Dispatcher
	Payments *payment.Service

	kafka *notification.KafkaPublisher
}

// New connects storage, migrates the schema and wires the services. Redis is
// optional: without REDIS_ADDR the gateway token lives in memory and IPN
// deliveries are not deduplicated across processes.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Log:     log,
		Metrics: metrics.New("safaristay"),
		Ring:    diagnostics.NewRing(cfg.Diagnostics.Capacity),
		Tokens:  jwt.New(cfg.JWT.Secret, cfg.JWT.TTL),
	}
	log.AddHook(diagnostics.NewHook(a.Ring))

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	a.DB = db

	if cfg.Redis.Addr != "" {
		rc := cache.NewRedisCache(cfg.Redis)
		if err := rc.Ping(ctx); err != nil {
			log.WithField("error", err.Error()).Warn("redis_unavailable")
		}
		a.Redis = rc
	}

	a.Bookings = repository.NewBookingRepository(db)
	a.Catalog = repository.NewCatalogRepository(db)
	a.Users = repository.NewUserRepository(db)
	a.Unresolved = repository.NewUnresolvedRepository(db)
	a.Stats = repository.NewStatsRepository(db)

	gatewayOpts := []pesapal.Option{pesapal.WithLogger(log), pesapal.WithMetrics(a.Metrics)}
	if a.Redis != nil {
		gatewayOpts = append(gatewayOpts, pesapal.WithTokenCache(a.Redis))
	}
	a.Gateway = pesapal.New(pesapal.Config{
		ConsumerKey:    cfg.Pesapal.ConsumerKey,
		ConsumerSecret: cfg.Pesapal.ConsumerSecret,
		Live:           cfg.Pesapal.Live(),
		CallbackURL:    cfg.Pesapal.CallbackURL,
		FrontendURL:    cfg.FrontendURL,
		IPNID:          cfg.Pesapal.IPNID,
		StorePageURL:   cfg.Pesapal.StorePageURL,
		EmbedPageURL:   cfg.Pesapal.EmbedPageURL,
		Timeout:        cfg.Pesapal.Timeout,
	}, gatewayOpts...)

	var pub notification.Publisher
	if cfg.Kafka.Enabled() {
		a.kafka = notification.NewKafkaPublisher(cfg.Kafka)
		pub = a.kafka
	} else {
		pub = notification.NewDirectPublisher(a.Sender())
	}
	a.Notifier = notification.NewDispatcher(pub, 0, log,
		notification.WithRing(a.Ring),
		notification.WithMetrics(a.Metrics),
	)

	paymentOpts := []payment.Option{
		payment.WithNotifier(a.Notifier),
		payment.WithMetrics(a.Metrics),
		payment.WithLogger(log),
		payment.WithProcessTimeout(cfg.Payments.WebhookProcessTimeout),
	}
	if a.Redis != nil {
		paymentOpts = append(paymentOpts, payment.WithLocker(a.Redis))
	}
	a.Payments = payment.NewService(a.Gateway, a.Bookings, a.Unresolved, paymentOpts...)

	log.WithFields(logrus.Fields{
		"env":     cfg.AppEnv,
		"gateway": a.Gateway.Environment(),
		"kafka":   cfg.Kafka.Enabled(),
		"redis":   a.Redis != nil,
	}).Info("app_initialized")
	return a, nil
}

// Sender delivers notifications by mail when Mandrill is configured and only
// logs them otherwise.
func (a *App) Sender() notification.Sender {
	if a.Config.Mail.MandrillAPIKey != "" {
		return notification.NewMandrillSender(a.Config.Mail.MandrillAPIKey, a.Config.Mail.From)
	}
	return notification.NewLogSender(a.Log)
}

func (a *App) Router() *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.ErrorLogger(a.Log),
		middleware.RequestLogger(a.Log),
		middleware.CORS(a.Config.CORSAllowedOrigins),
		a.Metrics.Middleware(),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(a.Metrics.Handler()))

	bookingHandler := booking.NewHandler(booking.NewService(
		a.Bookings, a.Catalog, a.Users, a.Notifier,
		booking.WithMetrics(a.Metrics),
		booking.WithLogger(a.Log),
	))
	authHandler := auth.NewHandler(auth.NewService(a.Users, a.Tokens, a.Log))
	paymentHandler := payment.NewHandler(a.Payments, a.Log)
	catalogHandler := catalog.NewHandler(catalog.NewService(a.Catalog), a.Log)
	adminHandler := admin.NewHandler(admin.NewService(a.Stats, a.Bookings), a.Log)
	diagHandler := diagnostics.NewHandler(a.Ring, a.Config.CORSAllowedOrigins, a.Log)

	// The gateway calls back on the configured callback URL, which has no
	// version prefix.
	paymentHandler.RegisterPublicRoutes(r.Group(""))

	v1 := r.Group("/api/v1")
	public := v1.Group("", middleware.OptionalJWTAuth(a.Tokens))
	protected := v1.Group("", middleware.JWTAuth(a.Tokens))
	adminGroup := v1.Group("/admin", middleware.JWTAuth(a.Tokens), middleware.AdminOnly())

	authHandler.RegisterPublicRoutes(v1)
	authHandler.RegisterProtectedRoutes(protected)
	catalogHandler.RegisterRoutes(v1)
	catalogHandler.RegisterAdminRoutes(adminGroup)
	bookingHandler.RegisterRoutes(public, protected)
	bookingHandler.RegisterAdminRoutes(adminGroup)
	paymentHandler.RegisterPublicRoutes(v1)
	paymentHandler.RegisterAdminRoutes(adminGroup)
	adminHandler.RegisterRoutes(adminGroup)
	diagHandler.RegisterRoutes(adminGroup)

	return r
}

// Serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests, webhook processing and queued notifications.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.HTTPAddr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.WithField("addr", srv.Addr).Info("http_server_started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	a.Log.Info("http_server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Log.WithField("error", err.Error()).Warn("http_shutdown_incomplete")
	}
	if err := a.Payments.Wait(shutdownCtx); err != nil {
		a.Log.WithField("error", err.Error()).Warn("webhook_drain_incomplete")
	}
	return a.Close(shutdownCtx)
}

// Close flushes the notification queue and releases connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Notifier != nil {
		if err := a.Notifier.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("notification queue: %w", err))
		}
	}
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka writer: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("database: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
