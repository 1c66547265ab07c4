package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/leshachaplin/exmanalytics/internal/cache"
	"github.com/leshachaplin/exmanalytics/internal/contact"
	"github.com/leshachaplin/exmanalytics/internal/geoip"
	"github.com/leshachaplin/exmanalytics/internal/retry"
	"github.com/leshachaplin/exmanalytics/internal/storage/interaction/clickhouse"
	"github.com/leshachaplin/exmanalytics/internal/worker"
	"github.com/leshachaplin/exmanalytics/internal/worker/redpanda/consumer"
	"github.com/leshachaplin/exmanalytics/internal/worker/redpanda/producer"
)

const envPrefix = "EXM"

// Config is the main config for the application
type Config struct {
	LogLevel          string            `envconfig:"LOG_LEVEL" default:"INFO"`
	Addr              string            `envconfig:"ADDR" default:":8080"`
	Clickhouse        clickhouse.Config `envconfig:"CLICKHOUSE"`
	Redis             cache.Config      `envconfig:"REDIS"`
	GeoIP             geoip.Config      `envconfig:"GEOIP"`
	Contacts          contact.Config    `envconfig:"CONTACTS"`
	SaveRetry         retry.Config      `envconfig:"SAVE_RETRY"`
	ContactRetry      retry.Config      `envconfig:"CONTACT_RETRY"`
	InteractionWorker worker.Config     `envconfig:"WORKER"`
	Producer          producer.Config   `envconfig:"PRODUCER"`
	DeadLetter        producer.Config   `envconfig:"DEAD_LETTER"`
	Consumer          consumer.Config   `envconfig:"CONSUMER"`
}

// Load reads the config from EXM_* environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	return cfg, nil
}
