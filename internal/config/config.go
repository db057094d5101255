// Package config provides runtime configuration values for the service.
package config

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/kelseyhightower/envconfig"
)

// Config holds configuration knobs for the HTTP server, the machine, the
// event workers and the optional Kafka and Redis integrations.
type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`

	Coins            []int64 `envconfig:"COINS" default:"5,10,20,50,100"`
	InitialBalanceCt int64   `envconfig:"INITIAL_BALANCE_CT" default:"0"`
	CatalogFile      string  `envconfig:"CATALOG_FILE"`
	MachineID        string  `envconfig:"MACHINE_ID"`

	InitialWorkerCount      int           `envconfig:"WORKER_COUNT"`
	WorkerMin               int           `envconfig:"WORKER_MIN" default:"1"`
	WorkerMax               int           `envconfig:"WORKER_MAX" default:"4"`
	ScaleInterval           time.Duration `envconfig:"SCALE_INTERVAL" default:"500ms"`
	ScaleUpBacklogPerWorker int           `envconfig:"SCALE_UP_BACKLOG_PER_WORKER" default:"100"`
	ScaleDownIdleTicks      int           `envconfig:"SCALE_DOWN_IDLE_TICKS" default:"6"`
	QueueHighWatermark      int           `envconfig:"QUEUE_HIGH_WATERMARK" default:"5000"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	EventsTopic  string   `envconfig:"VENDING_EVENTS_TOPIC" default:"vending.events"`

	RedisURL       string        `envconfig:"REDIS_URL"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"10m"`

	// TraceExporter is "none" or "stdout".
	TraceExporter string `envconfig:"TRACE_EXPORTER" default:"none"`
	ServiceName   string `envconfig:"SERVICE_NAME" default:"vending-machine-simulator"`
}

// Load collects configuration from environment with defaults.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, errors.Wrap(err, "process env")
	}
	if c.InitialWorkerCount == 0 {
		c.InitialWorkerCount = c.WorkerMin
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR is required")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if len(c.Coins) == 0 {
		return errors.New("COINS must not be empty")
	}
	for _, v := range c.Coins {
		if v <= 0 {
			return errors.Errorf("COINS: denomination %d must be positive", v)
		}
	}
	if c.InitialBalanceCt < 0 {
		return errors.New("INITIAL_BALANCE_CT must be >= 0")
	}
	if c.WorkerMin < 1 {
		return errors.New("WORKER_MIN must be >= 1")
	}
	if c.WorkerMax < c.WorkerMin {
		return errors.New("WORKER_MAX must be >= WORKER_MIN")
	}
	if c.InitialWorkerCount < c.WorkerMin || c.InitialWorkerCount > c.WorkerMax {
		return errors.New("WORKER_COUNT must be within [WORKER_MIN, WORKER_MAX]")
	}
	if c.ScaleInterval <= 0 {
		return errors.New("SCALE_INTERVAL must be positive")
	}
	if len(c.KafkaBrokers) > 0 && c.EventsTopic == "" {
		return errors.New("VENDING_EVENTS_TOPIC is required when KAFKA_BROKERS is set")
	}
	switch c.TraceExporter {
	case "none", "stdout":
	default:
		return errors.Errorf("TRACE_EXPORTER: unknown exporter %q", c.TraceExporter)
	}
	return nil
}
