package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from .env, environment and flags.
type Config struct {
	RunAddress      string        `env:"RUN_ADDRESS"`
	DatabaseURI     string        `env:"DATABASE_URI"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
	LogLevel        string        `env:"LOG_LEVEL"`

	JWTSecret   string        `env:"JWT_SECRET"`
	TokenTTL    time.Duration `env:"TOKEN_TTL"`
	BcryptCost  int           `env:"BCRYPT_COST"`
	ResetTTL    time.Duration `env:"PASSWORD_RESET_TTL"`
	AdminEmails []string      `env:"ADMIN_EMAILS" envSeparator:","`

	PublicURL   string `env:"PUBLIC_URL"`
	FrontendURL string `env:"FRONTEND_URL"`

	PayPalBaseURL      string        `env:"PAYPAL_BASE_URL"`
	PayPalClientID     string        `env:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret string        `env:"PAYPAL_CLIENT_SECRET"`
	PayPalTimeout      time.Duration `env:"PAYPAL_TIMEOUT"`

	ApprovalTimeout   time.Duration `env:"CHECKOUT_APPROVAL_TIMEOUT"`
	UploadDir         string        `env:"UPLOAD_DIR"`
	UploadConcurrency int           `env:"UPLOAD_CONCURRENCY"`
	MaxUploadBytes    int64         `env:"MAX_UPLOAD_BYTES"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC"`

	CapabilityTTL      time.Duration `env:"CAPABILITY_TTL"`
	AllowAnyTransition bool          `env:"ALLOW_ANY_TRANSITION"`

	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL"`
	ReconcileGrace    time.Duration `env:"RECONCILE_GRACE"`
	ReconcileBatch    int           `env:"RECONCILE_BATCH"`
	WorkerPoolSize    int           `env:"WORKER_POOL_SIZE"`

	ServiceName    string `env:"SERVICE_NAME"`
	JaegerEndpoint string `env:"JAEGER_ENDPOINT"`
}

const (
	defaultRunAddress        = ":8080"
	defaultShutdownTimeout   = 10 * time.Second
	defaultLogLevel          = "info"
	defaultTokenTTL          = 24 * time.Hour
	defaultResetTTL          = time.Hour
	defaultPublicURL         = "http://localhost:8080"
	defaultFrontendURL       = "http://localhost:3000"
	defaultPayPalBaseURL     = "https://api-m.sandbox.paypal.com"
	defaultPayPalTimeout     = 10 * time.Second
	defaultApprovalTimeout   = 30 * time.Minute
	defaultUploadDir         = "./uploads"
	defaultUploadConcurrency = 4
	defaultMaxUploadBytes    = 20 << 20
	defaultKafkaTopic        = "paperdesk.notifications"
	defaultCapabilityTTL     = 15 * time.Minute
	defaultReconcileInterval = 30 * time.Second
	defaultReconcileGrace    = 2 * time.Minute
	defaultReconcileBatch    = 32
	defaultWorkerPoolSize    = 4
	defaultServiceName       = "paperdesk"
)

func defaults() *Config {
	return &Config{
		RunAddress:        defaultRunAddress,
		ShutdownTimeout:   defaultShutdownTimeout,
		LogLevel:          defaultLogLevel,
		TokenTTL:          defaultTokenTTL,
		ResetTTL:          defaultResetTTL,
		PublicURL:         defaultPublicURL,
		FrontendURL:       defaultFrontendURL,
		PayPalBaseURL:     defaultPayPalBaseURL,
		PayPalTimeout:     defaultPayPalTimeout,
		ApprovalTimeout:   defaultApprovalTimeout,
		UploadDir:         defaultUploadDir,
		UploadConcurrency: defaultUploadConcurrency,
		MaxUploadBytes:    defaultMaxUploadBytes,
		KafkaTopic:        defaultKafkaTopic,
		CapabilityTTL:     defaultCapabilityTTL,
		ReconcileInterval: defaultReconcileInterval,
		ReconcileGrace:    defaultReconcileGrace,
		ReconcileBatch:    defaultReconcileBatch,
		WorkerPoolSize:    defaultWorkerPoolSize,
		ServiceName:       defaultServiceName,
	}
}

// Load parses configuration from .env, environment variables and flags.
func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs is Load with explicit command line flags.
func LoadArgs(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(args, environ(os.Environ()))
}

func environ(pairs []string) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}

func load(args []string, environment map[string]string) (*Config, error) {
	cfg := defaults()
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("paperdesk", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		shutdownTimeoutStr   = cfg.ShutdownTimeout.String()
		reconcileIntervalStr = cfg.ReconcileInterval.String()
		approvalTimeoutStr   = cfg.ApprovalTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&cfg.PayPalBaseURL, "paypal-url", cfg.PayPalBaseURL, "PayPal REST API base URL")
	fs.StringVar(&cfg.UploadDir, "upload-dir", cfg.UploadDir, "Directory for order attachments")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent reconciliation workers")
	fs.BoolVar(&cfg.AllowAnyTransition, "allow-any-transition", cfg.AllowAnyTransition, "Disable the order status transition guard")
	fs.StringVar(&reconcileIntervalStr, "reconcile-interval", reconcileIntervalStr, "Interval between reconciliation passes")
	fs.StringVar(&approvalTimeoutStr, "approval-timeout", approvalTimeoutStr, "How long checkout waits for buyer approval")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ReconcileInterval, err = time.ParseDuration(reconcileIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid reconcile interval: %w", err)
	}

	if cfg.ApprovalTimeout, err = time.ParseDuration(approvalTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid approval timeout: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile := environment["JWT_SECRET_FILE"]; secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	normalize(cfg)

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret must be provided")
	}

	return cfg, nil
}

func normalize(cfg *Config) {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = defaultResetTTL
	}
	if cfg.PayPalTimeout <= 0 {
		cfg.PayPalTimeout = defaultPayPalTimeout
	}
	if cfg.ApprovalTimeout <= 0 {
		cfg.ApprovalTimeout = defaultApprovalTimeout
	}
	if cfg.UploadConcurrency <= 0 {
		cfg.UploadConcurrency = defaultUploadConcurrency
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.CapabilityTTL <= 0 {
		cfg.CapabilityTTL = defaultCapabilityTTL
	}
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = defaultReconcileInterval
	}
	if cfg.ReconcileGrace <= 0 {
		cfg.ReconcileGrace = defaultReconcileGrace
	}
	if cfg.ReconcileBatch <= 0 {
		cfg.ReconcileBatch = defaultReconcileBatch
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	emails := cfg.AdminEmails[:0]
	for _, e := range cfg.AdminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			emails = append(emails, e)
		}
	}
	cfg.AdminEmails = emails

	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
}

// IsAdminEmail reports whether email is on the configured allow-list.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range c.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}
