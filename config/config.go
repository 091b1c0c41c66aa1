package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Journey   JourneyConfig   `yaml:"journey"`
	Worker    WorkerConfig    `yaml:"worker"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type HTTPConfig struct {
	Address    string `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	SwaggerDir string `yaml:"swagger_dir" env:"HTTP_SWAGGER_DIR" env-default:"api/swagger"`
}

type GRPCConfig struct {
	Address string `yaml:"address" env:"GRPC_ADDRESS" env-default:":9090"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD"`
	Name     string `yaml:"name" env:"POSTGRES_DB" env-default:"airjourney"`
	SSLMode  string `yaml:"ssl_mode" env:"POSTGRES_SSL_MODE" env-default:"disable"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type KafkaConfig struct {
	Brokers       []string `yaml:"brokers" env:"KAFKA_BROKERS"`
	JourneysTopic string   `yaml:"journeys_topic" env:"KAFKA_JOURNEYS_TOPIC" env-default:"journeys-events"`
	GroupID       string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"airjourney-worker"`
}

type CatalogConfig struct {
	URL            string `yaml:"url" env:"CATALOG_URL" env-default:"https://bitecingcom.ipage.com/testapi/avanzado.js"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"CATALOG_TIMEOUT_SECONDS" env-default:"10"`
	TTLMinutes     int    `yaml:"ttl_minutes" env:"CATALOG_TTL_MINUTES" env-default:"30"`
}

func (c CatalogConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c CatalogConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

type JourneyConfig struct {
	MaxHops int `yaml:"max_hops" env:"JOURNEY_MAX_HOPS" env-default:"10"`
}

type WorkerConfig struct {
	WarmupMinutes int `yaml:"warmup_minutes" env:"WORKER_WARMUP_MINUTES" env-default:"25"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type TelemetryConfig struct {
	ServiceName  string `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"airjourney"`
	StdoutTraces bool   `yaml:"stdout_traces" env:"TELEMETRY_STDOUT_TRACES"`
}

// LoadConfig reads the YAML file at path and then applies environment
// overrides and defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"catalog.timeout_seconds", c.Catalog.TimeoutSeconds},
		{"catalog.ttl_minutes", c.Catalog.TTLMinutes},
		{"journey.max_hops", c.Journey.MaxHops},
		{"worker.warmup_minutes", c.Worker.WarmupMinutes},
	}
	for _, p := range positive {
		if p.value < 1 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}
	return nil
}
