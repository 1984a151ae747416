package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr          = ":5000"
	defaultDatabaseURL       = "safaristay.db"
	defaultJWTSecret         = "change-me-jwt-secret"
	defaultJWTTTL            = "168h"
	defaultLogLevel          = "info"
	defaultLogFormat         = "text"
	defaultKafkaTopic        = "booking-notifications"
	defaultKafkaGroupID      = "safaristay-notifications"
	defaultCallbackURL       = "http://localhost:5000/payments/callback"
	defaultPesapalTimeout    = "20s"
	defaultDiagnosticsCap    = 200
	defaultReconcileSchedule = "@every 5m"
	defaultWebhookTimeout    = "60s"
	defaultMailFrom          = "bookings@safaristay.local"
)

type Config struct {
	AppEnv             string   `yaml:"app_env"`
	HTTPAddr           string   `yaml:"http_addr"`
	DatabaseURL        string   `yaml:"database_url"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	FrontendURL        string   `yaml:"frontend_url"`

	JWT         JWTConfig         `yaml:"jwt"`
	Log         LogConfig         `yaml:"log"`
	Redis       RedisConfig       `yaml:"redis"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Pesapal     PesapalConfig     `yaml:"pesapal"`
	Mail        MailConfig        `yaml:"mail"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Payments    PaymentsConfig    `yaml:"payments"`
}

type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers           []string `yaml:"brokers"`
	NotificationTopic string   `yaml:"notification_topic"`
	GroupID           string   `yaml:"group_id"`
}

// Enabled reports whether notifications go through Kafka instead of the
// in-process queue.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type PesapalConfig struct {
	ConsumerKey    string        `yaml:"consumer_key"`
	ConsumerSecret string        `yaml:"consumer_secret"`
	Env            string        `yaml:"env"`
	CallbackURL    string        `yaml:"callback_url"`
	IPNID          string        `yaml:"ipn_id"`
	StorePageURL   string        `yaml:"store_page_url"`
	EmbedPageURL   string        `yaml:"embed_page_url"`
	Timeout        time.Duration `yaml:"timeout"`
}

func (p PesapalConfig) Live() bool {
	env := strings.ToLower(strings.TrimSpace(p.Env))
	return env == "production" || env == "live" || env == "prod"
}

type MailConfig struct {
	From           string `yaml:"from"`
	MandrillAPIKey string `yaml:"mandrill_api_key"`
}

type DiagnosticsConfig struct {
	Capacity int `yaml:"capacity"`
}

type PaymentsConfig struct {
	ReconcileSchedule     string        `yaml:"reconcile_schedule"`
	WebhookProcessTimeout time.Duration `yaml:"webhook_process_timeout"`
}

// Load reads .env (when present), then the optional YAML file named by
// CONFIG_FILE, then environment variables. Later sources win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", orDefault(cfg.AppEnv, "dev"))))
	cfg.HTTPAddr = getEnv("HTTP_ADDR", orDefault(cfg.HTTPAddr, defaultHTTPAddr))
	cfg.DatabaseURL = getEnv("DATABASE_URL", orDefault(cfg.DatabaseURL, defaultDatabaseURL))
	cfg.FrontendURL = strings.TrimRight(getEnv("FRONTEND_URL", cfg.FrontendURL), "/")
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}

	cfg.JWT.Secret = strings.TrimSpace(getEnv("JWT_SECRET", orDefault(cfg.JWT.Secret, defaultJWTSecret)))
	var err error
	if cfg.JWT.TTL, err = parseDurationEnv("JWT_TTL", cfg.JWT.TTL, defaultJWTTTL); err != nil {
		return err
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", orDefault(cfg.Log.Level, defaultLogLevel))
	cfg.Log.Format = getEnv("LOG_FORMAT", orDefault(cfg.Log.Format, defaultLogFormat))

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	if cfg.Redis.DB, err = parseIntEnv("REDIS_DB", cfg.Redis.DB); err != nil {
		return err
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	cfg.Kafka.NotificationTopic = getEnv("KAFKA_NOTIFICATIONS_TOPIC", orDefault(cfg.Kafka.NotificationTopic, defaultKafkaTopic))
	cfg.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", orDefault(cfg.Kafka.GroupID, defaultKafkaGroupID))

	cfg.Pesapal.ConsumerKey = strings.TrimSpace(getEnv("PESAPAL_CONSUMER_KEY", cfg.Pesapal.ConsumerKey))
	cfg.Pesapal.ConsumerSecret = strings.TrimSpace(getEnv("PESAPAL_CONSUMER_SECRET", cfg.Pesapal.ConsumerSecret))
	cfg.Pesapal.Env = getEnv("PESAPAL_ENV", orDefault(cfg.Pesapal.Env, os.Getenv("NODE_ENV")))
	cfg.Pesapal.CallbackURL = getEnv("PESAPAL_CALLBACK_URL", orDefault(cfg.Pesapal.CallbackURL, defaultCallbackURL))
	cfg.Pesapal.IPNID = getEnv("PESAPAL_IPN_ID", cfg.Pesapal.IPNID)
	cfg.Pesapal.StorePageURL = getEnv("PESAPAL_STORE_PAGE_URL", cfg.Pesapal.StorePageURL)
	cfg.Pesapal.EmbedPageURL = getEnv("PESAPAL_EMBED_PAGE_URL", cfg.Pesapal.EmbedPageURL)
	if cfg.Pesapal.Timeout, err = parseDurationEnv("PESAPAL_TIMEOUT", cfg.Pesapal.Timeout, defaultPesapalTimeout); err != nil {
		return err
	}

	cfg.Mail.From = getEnv("MAIL_FROM", orDefault(cfg.Mail.From, defaultMailFrom))
	cfg.Mail.MandrillAPIKey = getEnv("MANDRILL_API_KEY", cfg.Mail.MandrillAPIKey)

	if cfg.Diagnostics.Capacity == 0 {
		cfg.Diagnostics.Capacity = defaultDiagnosticsCap
	}
	if cfg.Diagnostics.Capacity, err = parseIntEnv("DIAGNOSTICS_CAPACITY", cfg.Diagnostics.Capacity); err != nil {
		return err
	}

	cfg.Payments.ReconcileSchedule = getEnv("RECONCILE_SCHEDULE", orDefault(cfg.Payments.ReconcileSchedule, defaultReconcileSchedule))
	if cfg.Payments.WebhookProcessTimeout, err = parseDurationEnv("WEBHOOK_PROCESS_TIMEOUT", cfg.Payments.WebhookProcessTimeout, defaultWebhookTimeout); err != nil {
		return err
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.JWT.TTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.Payments.WebhookProcessTimeout <= 0 {
		return fmt.Errorf("WEBHOOK_PROCESS_TIMEOUT must be > 0")
	}
	if cfg.Diagnostics.Capacity <= 0 {
		return fmt.Errorf("DIAGNOSTICS_CAPACITY must be > 0")
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("LOG_FORMAT must be one of: json, text")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWT.Secret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.Pesapal.ConsumerKey == "" || cfg.Pesapal.ConsumerSecret == "" {
			return fmt.Errorf("in prod/release PESAPAL_CONSUMER_KEY and PESAPAL_CONSUMER_SECRET must be set")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

// parseDurationEnv prefers the env var, then a value already loaded from file,
// then fallback.
func parseDurationEnv(name string, current time.Duration, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		if current != 0 {
			return current, nil
		}
		value = fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name string, current int) (int, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return current, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
