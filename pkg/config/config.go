package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"carbroker/pkg/client"
	"carbroker/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port      string
	LogLevel  string
	LogFormat string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	VendorBaseURL        string
	VendorKey            string
	VendorUser           string
	VendorPassword       string
	VendorLanguage       string
	VendorImageBaseURL   string
	VendorTimeout        time.Duration
	VendorBookingTimeout time.Duration
	VendorCancelTimeout  time.Duration
	VendorCurrency       string

	GroupCacheTTL time.Duration

	ImageProxyHosts   []string
	ImageProxyTimeout time.Duration

	LockStore          string
	LockFilePath       string
	LockSweepInterval  time.Duration
	LockWaitTimeout    time.Duration
	LockPersistTimeout time.Duration

	CommissionRate float64
	FXRates        string

	NotifyEnabled bool
	NotifyTopic   string

	MetricsEnabled bool

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port:      getEnvStr(EnvPort, DefaultPort),
		LogLevel:  getEnvStr(EnvLogLevel, DefaultLogLevel),
		LogFormat: getEnvStr(EnvLogFormat, DefaultLogFormat),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		VendorBaseURL:        getEnvStr(EnvVendorBaseURL, DefaultVendorBaseURL),
		VendorKey:            getEnvStr(EnvVendorKey, ""),
		VendorUser:           getEnvStr(EnvVendorUser, ""),
		VendorPassword:       getEnvStr(EnvVendorPassword, ""),
		VendorLanguage:       getEnvStr(EnvVendorLanguage, DefaultVendorLanguage),
		VendorImageBaseURL:   getEnvStr(EnvVendorImageBaseURL, DefaultVendorImageBaseURL),
		VendorTimeout:        getEnvDuration(EnvVendorTimeout, DefaultVendorTimeout),
		VendorBookingTimeout: getEnvDuration(EnvVendorBookingTimeout, DefaultVendorBookingTimeout),
		VendorCancelTimeout:  getEnvDuration(EnvVendorCancelTimeout, DefaultVendorCancelTimeout),
		VendorCurrency:       getEnvStr(EnvVendorCurrency, DefaultVendorCurrency),

		GroupCacheTTL: getEnvDuration(EnvGroupCacheTTL, DefaultGroupCacheTTL),

		ImageProxyHosts:   getEnvList(EnvImageProxyHosts, DefaultImageProxyHosts),
		ImageProxyTimeout: getEnvDuration(EnvImageProxyTimeout, DefaultImageProxyTimeout),

		LockStore:          strings.ToLower(getEnvStr(EnvLockStore, DefaultLockStore)),
		LockFilePath:       getEnvStr(EnvLockFilePath, DefaultLockFilePath),
		LockSweepInterval:  getEnvDuration(EnvLockSweepInterval, DefaultLockSweepInterval),
		LockWaitTimeout:    getEnvDuration(EnvLockWaitTimeout, DefaultLockWaitTimeout),
		LockPersistTimeout: getEnvDuration(EnvLockPersistTimeout, DefaultLockPersistTimeout),

		CommissionRate: getEnvFloat(EnvCommissionRate, DefaultCommissionRate),
		FXRates:        getEnvStr(EnvFXRates, ""),

		NotifyEnabled: getEnvBool(EnvNotifyEnabled, false),
		NotifyTopic:   getEnvStr(EnvNotifyTopic, DefaultNotifyTopic),

		MetricsEnabled: getEnvBool(EnvMetricsEnabled, true),

		Client: client.NewClient(),
	}
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
		Service:   serviceName,
	})

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetVendor() {
	cfg.Client.SetVendor(cfg.VendorBaseURL, 0)
}

// UsesMongo reports whether the reservation locks live in MongoDB.
func (cfg *Config) UsesMongo() bool {
	return cfg.LockStore == LockStoreMongo
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.LogFormat != logger.JSON && cfg.LogFormat != logger.TEXT {
		errors = append(errors, fmt.Sprintf("LogFormat must be 'json' or 'text', got: %s", cfg.LogFormat))
	}

	if u, err := url.Parse(cfg.VendorBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, fmt.Sprintf("VendorBaseURL must be an absolute http(s) URL, got: %s", cfg.VendorBaseURL))
	}
	if cfg.VendorKey == "" {
		errors = append(errors, "VendorKey cannot be empty")
	}
	if cfg.VendorUser == "" || cfg.VendorPassword == "" {
		errors = append(errors, "VendorUser and VendorPassword must both be set")
	}
	if cfg.VendorTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("VendorTimeout must be positive, got: %s", cfg.VendorTimeout))
	}
	if cfg.VendorBookingTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("VendorBookingTimeout must be positive, got: %s", cfg.VendorBookingTimeout))
	}
	if cfg.VendorCancelTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("VendorCancelTimeout must be positive, got: %s", cfg.VendorCancelTimeout))
	}
	if cfg.VendorCurrency == "" {
		errors = append(errors, "VendorCurrency cannot be empty")
	}
	if cfg.GroupCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("GroupCacheTTL must be positive, got: %s", cfg.GroupCacheTTL))
	}
	if len(cfg.ImageProxyHosts) == 0 {
		errors = append(errors, "ImageProxyHosts cannot be empty")
	}
	if cfg.ImageProxyTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ImageProxyTimeout must be positive, got: %s", cfg.ImageProxyTimeout))
	}

	switch cfg.LockStore {
	case LockStoreFile:
		if cfg.LockFilePath == "" {
			errors = append(errors, "LockFilePath cannot be empty when LockStore is 'file'")
		}
	case LockStoreMongo, LockStoreMemory:
	default:
		errors = append(errors, fmt.Sprintf("LockStore must be one of [file, mongo, memory], got: %s", cfg.LockStore))
	}
	if cfg.LockSweepInterval < 0 {
		errors = append(errors, fmt.Sprintf("LockSweepInterval cannot be negative, got: %s", cfg.LockSweepInterval))
	}
	if cfg.LockWaitTimeout < 0 {
		errors = append(errors, fmt.Sprintf("LockWaitTimeout cannot be negative, got: %s", cfg.LockWaitTimeout))
	}
	if cfg.LockPersistTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("LockPersistTimeout must be positive, got: %s", cfg.LockPersistTimeout))
	}

	if cfg.UsesMongo() {
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	}

	if cfg.CommissionRate < 0 || cfg.CommissionRate >= 1 {
		errors = append(errors, fmt.Sprintf("CommissionRate must be in [0, 1), got: %v", cfg.CommissionRate))
	}
	if cfg.NotifyEnabled && cfg.NotifyTopic == "" {
		errors = append(errors, "NotifyTopic cannot be empty when notifications are enabled")
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}
	if cfg.RequestTimeout < cfg.VendorBookingTimeout {
		errors = append(errors, fmt.Sprintf("RequestTimeout (%s) must be >= VendorBookingTimeout (%s)", cfg.RequestTimeout, cfg.VendorBookingTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"log_level", cfg.LogLevel,
		"vendor_base_url", cfg.VendorBaseURL,
		"vendor_user", cfg.VendorUser,
		"vendor_language", cfg.VendorLanguage,
		"vendor_timeout", cfg.VendorTimeout,
		"vendor_booking_timeout", cfg.VendorBookingTimeout,
		"vendor_cancel_timeout", cfg.VendorCancelTimeout,
		"vendor_currency", cfg.VendorCurrency,
		"group_cache_ttl", cfg.GroupCacheTTL,
		"image_proxy_hosts", cfg.ImageProxyHosts,
		"image_proxy_timeout", cfg.ImageProxyTimeout,
		"lock_store", cfg.LockStore,
		"lock_file_path", cfg.LockFilePath,
		"lock_sweep_interval", cfg.LockSweepInterval,
		"lock_wait_timeout", cfg.LockWaitTimeout,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"commission_rate", cfg.CommissionRate,
		"fx_rates_set", cfg.FXRates != "",
		"notify_enabled", cfg.NotifyEnabled,
		"notify_topic", cfg.NotifyTopic,
		"metrics_enabled", cfg.MetricsEnabled,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key, fallback string) []string {
	var list []string
	for _, item := range strings.Split(getEnvStr(key, fallback), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, strings.ToLower(item))
		}
	}
	return list
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.Replace(value, ",", ".", 1), 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// bare integers are seconds
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown(ctx context.Context) {
	cfg.Client.GracefulShutdown(ctx, cfg.Log)
}
