package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "carbroker"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 60 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 75 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultVendorBaseURL        = "http://xdrivejson.turevsistem.com"
	DefaultVendorLanguage       = "TR"
	DefaultVendorImageBaseURL   = "https://t1.trvcar.com/XDriveDzn/"
	DefaultVendorTimeout        = 20 * time.Second
	DefaultVendorBookingTimeout = 45 * time.Second
	DefaultVendorCancelTimeout  = 20 * time.Second
	DefaultVendorCurrency       = "EURO"

	DefaultGroupCacheTTL = 30 * time.Minute

	DefaultImageProxyHosts   = "xdrivejson.turevsistem.com,t1.trvcar.com,trvcar.com"
	DefaultImageProxyTimeout = 15 * time.Second

	LockStoreFile   = "file"
	LockStoreMongo  = "mongo"
	LockStoreMemory = "memory"

	DefaultLockStore          = LockStoreFile
	DefaultLockFilePath       = "data/reservation-locks.json"
	DefaultLockSweepInterval  = 1 * time.Hour
	DefaultLockWaitTimeout    = 50 * time.Second
	DefaultLockPersistTimeout = 5 * time.Second

	DefaultCommissionRate = 0.10

	DefaultNotifyTopic = "reservations.events"
)
