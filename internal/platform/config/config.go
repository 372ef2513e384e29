package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	platformstrings "creditflow/pkg/platform/strings"
)

// Config is the worker's full runtime configuration.
type Config struct {
	Server    Server
	Log       Log
	Database  Database
	Redis     RedisConfig
	Kafka     Kafka
	Jobs      Jobs
	Webhook   Webhook
	Providers Providers
}

// Server captures the ops HTTP listener (health, metrics, provider callbacks).
type Server struct {
	Addr        string
	ServiceName string
}

type Log struct {
	Level  string
	Format string // "json" or "text"
}

type Database struct {
	// URL empty means in-memory stores and queue.
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	NotifyChannel   string
}

type RedisConfig struct {
	URL           string
	PoolSize      int
	MinIdleConns  int
	DialTimeout   time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	UpdateChannel string
}

type Kafka struct {
	Brokers []string
	Topic   string
}

// Jobs configures the worker pool and the transition job retry budget.
type Jobs struct {
	Workers           int
	PollInterval      time.Duration
	TransitionRetries int
	TransitionBackoff time.Duration
	StaleAfter        time.Duration
}

type Webhook struct {
	BaseURL string
}

type Provider struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
}

type Providers struct {
	Timeout  time.Duration
	Mexico   Provider
	Colombia Provider
}

// FromEnv builds the configuration from environment variables so main stays
// lean. A .env file in the working directory is loaded first when present;
// real environment variables win.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	var errs []string
	duration := func(key string, def time.Duration) time.Duration {
		v, err := envDuration(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	integer := func(key string, def int) int {
		v, err := envInt(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	cfg := Config{
		Server: Server{
			Addr:        envString("CREDITFLOW_ADDR", ":8090"),
			ServiceName: envString("CREDITFLOW_SERVICE_NAME", "creditflow-worker"),
		},
		Log: Log{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "json"),
		},
		Database: Database{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    integer("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    integer("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			NotifyChannel:   envString("DATABASE_NOTIFY_CHANNEL", "credit_request_status_changed"),
		},
		Redis: RedisConfig{
			URL:           os.Getenv("REDIS_URL"),
			PoolSize:      integer("REDIS_POOL_SIZE", 10),
			MinIdleConns:  integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:   duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:   duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:  duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			UpdateChannel: envString("REDIS_UPDATE_CHANNEL", "credit-requests:status"),
		},
		Kafka: Kafka{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   envString("KAFKA_STATUS_TOPIC", "credit-request-status"),
		},
		Jobs: Jobs{
			Workers:           integer("JOB_WORKERS", 4),
			PollInterval:      duration("JOB_POLL_INTERVAL", time.Second),
			TransitionRetries: integer("TRANSITION_JOB_RETRIES", 3),
			TransitionBackoff: duration("TRANSITION_JOB_BACKOFF", 10*time.Second),
			StaleAfter:        duration("JOB_STALE_AFTER", 5*time.Minute),
		},
		Webhook: Webhook{
			BaseURL: strings.TrimRight(envString("WEBHOOK_BASE_URL", "http://localhost:8090"), "/"),
		},
		Providers: Providers{
			Timeout: duration("PROVIDER_TIMEOUT", 10*time.Second),
			Mexico: Provider{
				BaseURL:       envString("MX_PROVIDER_URL", "http://localhost:9101"),
				APIKey:        os.Getenv("MX_PROVIDER_API_KEY"),
				WebhookSecret: os.Getenv("MX_PROVIDER_WEBHOOK_SECRET"),
			},
			Colombia: Provider{
				BaseURL:       envString("CO_PROVIDER_URL", "http://localhost:9102"),
				APIKey:        os.Getenv("CO_PROVIDER_API_KEY"),
				WebhookSecret: os.Getenv("CO_PROVIDER_WEBHOOK_SECRET"),
			},
		},
	}

	if cfg.Jobs.Workers <= 0 {
		errs = append(errs, "JOB_WORKERS must be positive")
	}
	if cfg.Jobs.TransitionRetries < 0 {
		errs = append(errs, "TRANSITION_JOB_RETRIES must not be negative")
	}
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envList(key string) []string {
	return platformstrings.SplitList(os.Getenv(key), ",")
}
