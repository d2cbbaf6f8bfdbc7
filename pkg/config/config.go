// Package config loads application configuration from flags, the
// environment, and an optional .env file, using viper as the
// precedence-resolving backend.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	API     APIConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Auth    AuthConfig
	Mempool MempoolConfig
}

// APIConfig holds API-related configuration.
type APIConfig struct {
	Port    string
	Version string
}

// RedisConfig holds Redis-related configuration.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// KafkaConfig holds Kafka-related configuration.
type KafkaConfig struct {
	Brokers          string
	ConsumerGroup    string
	TransactionTopic string
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	JWTSecret   string
	TokenExpiry int64
}

// MempoolConfig holds the admission processor's tunables.
type MempoolConfig struct {
	// WorkerPoolSize is the number of goroutines in the cryptographic
	// worker pool.
	WorkerPoolSize int
	// MaxPerSenderPerBatch caps how many transactions from one sender a
	// single submission batch may carry into the worker.
	MaxPerSenderPerBatch int
	// QueueYield is the pause the completion queue's consumer takes
	// between finished tickets.
	QueueYield time.Duration
	// PoolCapacityPerSender caps how many transactions one sender may
	// hold in the mempool store at once.
	PoolCapacityPerSender int
	// MinPoolFee is the minimum fee a transaction must carry to enter
	// the mempool at all.
	MinPoolFee float64
	// MinBroadcastFee is the minimum fee a transaction must carry to be
	// rebroadcast to peers, typically higher than MinPoolFee.
	MinBroadcastFee float64
}

// Load resolves configuration from (in ascending precedence) a local
// .env file, environment variables, and command-line flags, mirroring
// the teacher's getEnv-with-default convention but through viper.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fs := pflag.NewFlagSet("stathera-mempool", pflag.ContinueOnError)
	fs.String("api.port", "8080", "HTTP listen port")
	fs.String("api.version", "v1", "API version prefix")
	fs.String("redis.address", "localhost:6379", "Redis address")
	fs.String("redis.password", "", "Redis password")
	fs.Int("redis.db", 0, "Redis logical database")
	fs.String("kafka.brokers", "localhost:9092", "Kafka bootstrap servers")
	fs.String("kafka.consumer_group", "stathera-mempool", "Kafka consumer group id")
	fs.String("kafka.transaction_topic", "transactions", "Kafka topic carrying inbound transactions")
	fs.String("auth.jwt_secret", "your_jwt_secret_here", "JWT signing secret")
	fs.Int64("auth.token_expiry", 86400, "JWT token expiry in seconds")
	fs.Int("mempool.worker_pool_size", 4, "cryptographic worker pool size")
	fs.Int("mempool.max_per_sender_per_batch", 64, "per-sender excess limit per submission batch")
	fs.Duration("mempool.queue_yield", 10*time.Millisecond, "completion queue consumer yield")
	fs.Int("mempool.pool_capacity_per_sender", 256, "mempool store per-sender capacity")
	fs.Float64("mempool.min_pool_fee", 0.01, "minimum fee to enter the mempool")
	fs.Float64("mempool.min_broadcast_fee", 0.05, "minimum fee to be rebroadcast to peers")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	return &Config{
		API: APIConfig{
			Port:    v.GetString("api.port"),
			Version: v.GetString("api.version"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Kafka: KafkaConfig{
			Brokers:          v.GetString("kafka.brokers"),
			ConsumerGroup:    v.GetString("kafka.consumer_group"),
			TransactionTopic: v.GetString("kafka.transaction_topic"),
		},
		Auth: AuthConfig{
			JWTSecret:   v.GetString("auth.jwt_secret"),
			TokenExpiry: v.GetInt64("auth.token_expiry"),
		},
		Mempool: MempoolConfig{
			WorkerPoolSize:        v.GetInt("mempool.worker_pool_size"),
			MaxPerSenderPerBatch:  v.GetInt("mempool.max_per_sender_per_batch"),
			QueueYield:            v.GetDuration("mempool.queue_yield"),
			PoolCapacityPerSender: v.GetInt("mempool.pool_capacity_per_sender"),
			MinPoolFee:            v.GetFloat64("mempool.min_pool_fee"),
			MinBroadcastFee:       v.GetFloat64("mempool.min_broadcast_fee"),
		},
	}, nil
}
