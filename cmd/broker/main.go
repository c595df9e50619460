package main

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"carbroker/internal/availability"
	"carbroker/internal/bookings/handler"
	"carbroker/internal/bookings/service"
	"carbroker/internal/bookings/validator"
	"carbroker/internal/images"
	"carbroker/internal/metrics"
	"carbroker/internal/notify"
	"carbroker/internal/reservations/arbiter"
	"carbroker/internal/reservations/cache"
	vendorclient "carbroker/internal/supplier/client"
	"carbroker/internal/supplier/fields"
	"carbroker/internal/supplier/normalizer"
	"carbroker/pkg/app"
	"carbroker/pkg/config"
	mongotx "carbroker/pkg/db/mongo"
	"carbroker/pkg/kafka"
	kafka_config "carbroker/pkg/kafka/config"
	kafka_middleware "carbroker/pkg/kafka/middleware"
)

const ServiceName = "carbroker"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting car rental broker")

	ctx, stopWorkers := context.WithCancel(context.Background())

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	locks := initLocks(ctx, cfg, m)
	go locks.RunSweeper(ctx, cfg.LockSweepInterval, time.Now)

	cfg.SetVendor()
	vendorOpts := []vendorclient.Option{vendorclient.WithHTTPClient(cfg.Client.Vendor)}
	if m != nil {
		vendorOpts = append(vendorOpts, vendorclient.WithObserver(m))
	}
	vendor := vendorclient.New(vendorclient.Config{
		BaseURL:  cfg.VendorBaseURL,
		Key:      cfg.VendorKey,
		User:     cfg.VendorUser,
		Password: cfg.VendorPassword,
		Language: cfg.VendorLanguage,
		Timeout:  cfg.VendorTimeout,
	}, cfg.Log.Component("vendor"), vendorOpts...)

	norm := normalizer.New(fields.Default(), normalizer.Config{
		ImageBaseURL: cfg.VendorImageBaseURL,
		BaseCurrency: cfg.VendorCurrency,
	}, cfg.Log.Component("normalizer"))

	rates, err := availability.ParseRates(cfg.FXRates)
	if err != nil {
		cfg.Log.Fatal("Invalid FX rates", "error", err)
	}
	availabilityService := availability.NewService(vendor, norm, locks, rates, cfg)

	var recorder arbiter.Recorder
	if m != nil {
		recorder = m
	}
	arb := arbiter.New(locks, vendor, vendor, recorder, arbiter.Config{
		BookingTimeout: cfg.VendorBookingTimeout,
		CancelTimeout:  cfg.VendorCancelTimeout,
		LockWait:       cfg.LockWaitTimeout,
	}, cfg.Log.Component("arbiter"))

	notifier, closeNotifier := initNotifier(cfg, m)
	bookingService := service.NewBookingService(
		arb,
		locks,
		notifier,
		validator.NewBookingValidator(cfg.Log),
		cfg,
	)

	checks := map[string]app.ReadinessCheck{
		"locks": locks.Ready,
	}
	if cfg.UsesMongo() {
		checks["mongo"] = cfg.Client.PingMongo
	}
	var metricsHandler http.Handler
	if m != nil {
		metricsHandler = m.Handler()
	}

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(checks, metricsHandler,
		availability.NewHandler(availabilityService, cfg.Log),
		handler.NewBookingHandler(bookingService, cfg.Log),
		images.NewHandler(initImageProxy(cfg), cfg.Log.Component("images")),
	)
	serverApp.OnShutdown(func(ctx context.Context) {
		stopWorkers()
		if err := locks.Persist(ctx); err != nil {
			cfg.Log.Error("Final lock persist failed", "error", err)
		}
		closeNotifier()
	})
	serverApp.Run()
}

// initImageProxy admits the configured hosts plus the host the normalizer
// builds picture links on.
func initImageProxy(cfg *config.Config) *images.Proxy {
	hosts := append([]string(nil), cfg.ImageProxyHosts...)
	if u, err := url.Parse(cfg.VendorImageBaseURL); err == nil && u.Hostname() != "" {
		hosts = append(hosts, u.Hostname())
	}
	return images.NewProxy(hosts, cfg.ImageProxyTimeout, cfg.Log.Component("images"))
}

func initLocks(ctx context.Context, cfg *config.Config, m *metrics.Metrics) *cache.Cache {
	var store cache.Store
	switch cfg.LockStore {
	case config.LockStoreMongo:
		cfg.SetMongo()
		store = cache.NewMongoStore(
			cfg.Client.Mongo.Database(cfg.MongoDatabaseName),
			mongotx.NewTransactionManager(cfg.Client.Mongo),
			cfg.LockPersistTimeout,
		)
	case config.LockStoreMemory:
		cfg.Log.Warn("Reservation locks are kept in memory only and are lost on restart")
		store = cache.NewMemoryStore()
	default:
		store = cache.NewFileStore(cfg.LockFilePath)
	}

	opts := []cache.Option{cache.WithPersistTimeout(cfg.LockPersistTimeout)}
	if m != nil {
		opts = append(opts, cache.WithObserver(m))
	}
	locks, err := cache.New(ctx, store, cfg.Log.Component("locks"), opts...)
	if err != nil {
		cfg.Log.Fatal("Failed to load reservation locks", "store", cfg.LockStore, "error", err)
	}
	cfg.Log.Info("Reservation locks loaded", "store", cfg.LockStore, "active", locks.Len())
	return locks
}

// initNotifier returns the Kafka notifier when notifications are enabled and
// a log-only notifier otherwise, plus its close function.
func initNotifier(cfg *config.Config, m *metrics.Metrics) (service.Notifier, func()) {
	if !cfg.NotifyEnabled {
		return notify.NewLogNotifier(cfg.Log.Component("notify")), func() {}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.NotifyTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log.Component("kafka")))
		if m != nil {
			producer.Use(kafka_middleware.MetricsProducerMiddleware(m))
		}
	}

	return notify.NewKafkaNotifier(producer, ServiceName, cfg.Log.Component("notify")), func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}
}
