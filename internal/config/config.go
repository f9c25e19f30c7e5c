package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DBConfig struct {
		DBHost     string `env:"KIOSK_DB_HOST"`
		DBPort     string `env:"KIOSK_DB_PORT"`
		DBUser     string `env:"KIOSK_DB_USER"`
		DBPassword string `env:"KIOSK_DB_PASSWORD"`
		DBName     string `env:"KIOSK_DB_NAME"`
		DBSSLMode  string `env:"KIOSK_DB_SSLMODE"`
	}

	HTTPPort       string `env:"KIOSK_HTTP_PORT"`
	MigrationsPath string `env:"KIOSK_MIGRATIONS_PATH"`

	KafkaURL              string `env:"KAFKA_BROKER_URL"`
	KafkaOrderStatusTopic string `env:"KAFKA_ORDER_STATUS_TOPIC"`

	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL"`
	OutboxPollTimeout  time.Duration `env:"OUTBOX_POLL_TIMEOUT"`

	MercadoPagoAccessToken   string        `env:"MERCADO_PAGO_ACCESS_TOKEN"`
	MercadoPagoUserID        string        `env:"MERCADO_PAGO_USER_ID"`
	MercadoPagoExternalPosID string        `env:"MERCADO_PAGO_EXTERNAL_POS_ID"`
	WebhookBaseURL           string        `env:"WEBHOOK_BASE_URL"`
	PaymentTimeout           time.Duration `env:"PAYMENT_TIMEOUT"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	cfg.DBConfig.DBHost = getEnvOrDefault("KIOSK_DB_HOST", "localhost")
	cfg.DBConfig.DBPort = getEnvOrDefault("KIOSK_DB_PORT", "5432")
	cfg.DBConfig.DBUser = getEnvOrDefault("KIOSK_DB_USER", "postgres")
	cfg.DBConfig.DBPassword = getEnvOrDefault("KIOSK_DB_PASSWORD", "postgres")
	cfg.DBConfig.DBName = getEnvOrDefault("KIOSK_DB_NAME", "kiosk_db")
	cfg.DBConfig.DBSSLMode = getEnvOrDefault("KIOSK_DB_SSLMODE", "disable")

	cfg.HTTPPort = getEnvOrDefault("KIOSK_HTTP_PORT", "8080")
	cfg.MigrationsPath = getEnvOrDefault("KIOSK_MIGRATIONS_PATH", "file://migrations")

	cfg.KafkaURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaOrderStatusTopic = getEnvOrDefault("KAFKA_ORDER_STATUS_TOPIC", "order_status_events")

	interval, err := time.ParseDuration(getEnvOrDefault("OUTBOX_POLL_INTERVAL", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_POLL_INTERVAL: %w", err)
	}
	cfg.OutboxPollInterval = interval

	timeout, err := time.ParseDuration(getEnvOrDefault("OUTBOX_POLL_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_POLL_TIMEOUT: %w", err)
	}
	cfg.OutboxPollTimeout = timeout

	cfg.MercadoPagoAccessToken = getEnvOrDefault("MERCADO_PAGO_ACCESS_TOKEN", "")
	cfg.MercadoPagoUserID = getEnvOrDefault("MERCADO_PAGO_USER_ID", "")
	cfg.MercadoPagoExternalPosID = getEnvOrDefault("MERCADO_PAGO_EXTERNAL_POS_ID", "")
	cfg.WebhookBaseURL = getEnvOrDefault("WEBHOOK_BASE_URL", "http://localhost:8080")

	paymentTimeout, err := time.ParseDuration(getEnvOrDefault("PAYMENT_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYMENT_TIMEOUT: %w", err)
	}
	cfg.PaymentTimeout = paymentTimeout

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("%s:%s@%s:%s/%s?sslmode=%s",
		c.DBConfig.DBUser, c.DBConfig.DBPassword, c.DBConfig.DBHost, c.DBConfig.DBPort, c.DBConfig.DBName, c.DBConfig.DBSSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return []string{c.KafkaURL}
}
