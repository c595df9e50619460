package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvVendorBaseURL        = "VENDOR_BASE_URL"
	EnvVendorKey            = "VENDOR_KEY"
	EnvVendorUser           = "VENDOR_USER"
	EnvVendorPassword       = "VENDOR_PASS"
	EnvVendorLanguage       = "VENDOR_LANGUAGE"
	EnvVendorImageBaseURL   = "VENDOR_IMAGE_BASE_URL"
	EnvVendorTimeout        = "VENDOR_TIMEOUT"
	EnvVendorBookingTimeout = "VENDOR_BOOKING_TIMEOUT"
	EnvVendorCancelTimeout  = "VENDOR_CANCEL_TIMEOUT"
	EnvVendorCurrency       = "VENDOR_CURRENCY"

	EnvGroupCacheTTL = "GROUP_CACHE_TTL"

	EnvImageProxyHosts   = "IMAGE_PROXY_ALLOWED_HOSTS"
	EnvImageProxyTimeout = "IMAGE_PROXY_TIMEOUT"

	EnvLockStore          = "LOCK_STORE"
	EnvLockFilePath       = "LOCK_FILE_PATH"
	EnvLockSweepInterval  = "LOCK_SWEEP_INTERVAL"
	EnvLockWaitTimeout    = "LOCK_WAIT_TIMEOUT"
	EnvLockPersistTimeout = "LOCK_PERSIST_TIMEOUT"

	EnvCommissionRate = "COMMISSION_RATE"
	EnvFXRates        = "FX_RATES"

	EnvNotifyEnabled = "NOTIFY_ENABLED"
	EnvNotifyTopic   = "NOTIFY_TOPIC"

	EnvMetricsEnabled = "METRICS_ENABLED"
)
