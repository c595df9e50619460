package kafka_config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"carbroker/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

var codecs = map[string]compress.Compression{
	"none":   compress.None,
	"gzip":   compress.Gzip,
	"snappy": compress.Snappy,
	"lz4":    compress.Lz4,
	"zstd":   compress.Zstd,
}

var acks = map[int]kafka.RequiredAcks{
	-1: kafka.RequireAll,
	0:  kafka.RequireNone,
	1:  kafka.RequireOne,
}

// Config holds the producer side of the Kafka setup. Reservation events are
// published only; the broker consumes nothing.
type Config struct {
	Brokers  []string
	ClientID string

	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerWriteTimeout time.Duration
	ProducerRequireAcks  int    // -1 all in-sync replicas, 0 none, 1 leader
	ProducerCompression  string // none, gzip, snappy, lz4, zstd
	ProducerAsync        bool

	// Empty disables the dead-letter writer.
	DLQTopic string

	EnableMiddleware bool
}

// Load reads the Kafka settings from the environment and validates them.
func Load() (*Config, error) {
	cfg := &Config{
		Brokers:  splitBrokers(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers)),
		ClientID: getEnvStr(EnvKafkaClientID, DefaultKafkaClientID),

		ProducerMaxAttempts:  getEnvInt(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts),
		ProducerBatchTimeout: getEnvDuration(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout),
		ProducerWriteTimeout: getEnvDuration(EnvKafkaProducerWriteTimeout, DefaultProducerWriteTimeout),
		ProducerRequireAcks:  getEnvInt(EnvKafkaProducerRequireAcks, DefaultProducerRequireAcks),
		ProducerCompression:  strings.ToLower(getEnvStr(EnvKafkaProducerCompression, DefaultProducerCompression)),
		ProducerAsync:        getEnvBool(EnvKafkaProducerAsync, DefaultProducerAsync),

		DLQTopic:         getEnvStr(EnvKafkaDLQTopic, DefaultDLQTopic),
		EnableMiddleware: getEnvBool(EnvKafkaEnableMiddleware, DefaultEnableMiddleware),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	var problems []string

	if len(cfg.Brokers) == 0 {
		problems = append(problems, "KAFKA_BROKERS must list at least one host:port")
	}
	if cfg.ProducerMaxAttempts <= 0 {
		problems = append(problems, fmt.Sprintf("ProducerMaxAttempts must be positive, got: %d", cfg.ProducerMaxAttempts))
	}
	if cfg.ProducerBatchTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("ProducerBatchTimeout must be positive, got: %s", cfg.ProducerBatchTimeout))
	}
	if cfg.ProducerWriteTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("ProducerWriteTimeout must be positive, got: %s", cfg.ProducerWriteTimeout))
	}
	if _, ok := codecs[cfg.ProducerCompression]; !ok {
		problems = append(problems, fmt.Sprintf("ProducerCompression must be one of none|gzip|snappy|lz4|zstd, got: %q", cfg.ProducerCompression))
	}
	if _, ok := acks[cfg.ProducerRequireAcks]; !ok {
		problems = append(problems, fmt.Sprintf("ProducerRequireAcks must be -1, 0 or 1, got: %d", cfg.ProducerRequireAcks))
	}
	if cfg.DLQTopic != "" && strings.ContainsAny(cfg.DLQTopic, " /\\") {
		problems = append(problems, fmt.Sprintf("DLQTopic is not a valid topic name: %q", cfg.DLQTopic))
	}

	if len(problems) == 0 {
		return nil
	}
	msg := "Kafka configuration validation failed:\n"
	for i, p := range problems {
		msg += fmt.Sprintf("  %d. %s\n", i+1, p)
	}
	return fmt.Errorf("%s", msg)
}

// Compression returns the kafka-go codec for ProducerCompression. Unknown
// names fall back to snappy; Validate rejects them first.
func (cfg *Config) Compression() compress.Compression {
	if c, ok := codecs[cfg.ProducerCompression]; ok {
		return c
	}
	return compress.Snappy
}

func (cfg *Config) RequiredAcks() kafka.RequiredAcks {
	if a, ok := acks[cfg.ProducerRequireAcks]; ok {
		return a
	}
	return kafka.RequireAll
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded",
		"brokers", cfg.Brokers,
		"client_id", cfg.ClientID,
		"max_attempts", cfg.ProducerMaxAttempts,
		"batch_timeout", cfg.ProducerBatchTimeout,
		"write_timeout", cfg.ProducerWriteTimeout,
		"require_acks", cfg.ProducerRequireAcks,
		"compression", cfg.ProducerCompression,
		"async", cfg.ProducerAsync,
		"dlq_topic", cfg.DLQTopic,
		"middleware", cfg.EnableMiddleware,
	)
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func getEnvStr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
