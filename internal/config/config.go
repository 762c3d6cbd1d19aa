package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	RabbitMQURL        string        `env:"RABBITMQ_URL,required=true"`
	RedisURL           string        `env:"REDIS_URL,required=true"`
	SubscriptionAPIURL string        `env:"SUBSCRIPTION_API_URL,required=true"`
	NotificationAPIURL string        `env:"NOTIFICATION_API_URL,required=true"`
	MaxConcurrentCalls int           `env:"MAX_CONCURRENT_CALLS,default=5"`
	MaxProcessingTime  time.Duration `env:"MAX_PROCESSING_TIME,default=10m"`
	HTTPTimeout        time.Duration `env:"HTTP_TIMEOUT,default=30s"`
	RateLimitPerSec    int           `env:"RATE_LIMIT_PER_SEC,default=100"`
	OpsPort            int           `env:"OPS_PORT,default=8081"`
	LogLevel           string        `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
