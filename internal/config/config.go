package config

import (
	"errors"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultPath = "./config/.env"

type Config struct {
	HTTPPort int `env:"HTTP_PORT" env-default:"8080"`

	BackendBaseURL    string        `env:"BACKEND_BASE_URL" env-required:"true" env-description:"booking REST API base URL"`
	BackendTimeout    time.Duration `env:"BACKEND_TIMEOUT" env-default:"10s"`
	BackendMaxRetries int           `env:"BACKEND_MAX_RETRIES" env-default:"3"`
	BackendRetryDelay time.Duration `env:"BACKEND_RETRY_DELAY" env-default:"200ms"`

	RedisURL      string        `env:"REDIS_URL"`
	StaffCacheTTL time.Duration `env:"STAFF_CACHE_TTL" env-default:"5m"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" env-separator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" env-default:"manager-console-events"`

	PostgresURL         string `env:"POSTGRES_URL"`
	PostgresMaxConn     int32  `env:"POSTGRES_MAX_CONN" env-default:"5"`
	PostgresMinConn     int32  `env:"POSTGRES_MIN_CONN" env-default:"1"`
	PostgresAutoMigrate bool   `env:"POSTGRES_AUTO_MIGRATE" env-default:"false"`

	S3Endpoint        string        `env:"S3_ENDPOINT"`
	S3Region          string        `env:"S3_REGION" env-default:"us-east-1"`
	S3AccessKeyID     string        `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string        `env:"S3_SECRET_ACCESS_KEY"`
	ExportBucket      string        `env:"EXPORT_BUCKET" env-default:"manager-exports"`
	ExportURLTTL      time.Duration `env:"EXPORT_URL_TTL" env-default:"15m"`

	DefaultPageSize int           `env:"DEFAULT_PAGE_SIZE" env-default:"10"`
	SessionIdleTTL  time.Duration `env:"SESSION_IDLE_TTL" env-default:"30m"`
}

func New() (*Config, error) {
	return Load(defaultPath)
}

// Load reads path, falling back to the process environment when the file
// does not exist.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := cleanenv.ReadEnv(&cfg); err != nil {
				return nil, err
			}
			return &cfg, nil
		}
		return nil, err
	}
	return &cfg, nil
}
