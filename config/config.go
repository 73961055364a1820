package config

import (
	"errors"
	"os"
	"strings"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the full application configuration loaded from the
// environment. The token secret and origin allow-list are loaded once here
// and injected into their consumers; nothing reads ambient environment
// state at request time.
type Config struct {
	Env        string `env:"APP_ENV" envDefault:"development"`
	ServerPort int    `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	// JWTSecret signs session tokens. Required.
	JWTSecret string `env:"JWT_SECRET"`

	// AllowedOrigins is the cross-origin allow-list for mutating requests.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	Database DatabaseConfig

	// MQBackend selects the order event broker: "rabbitmq", "pubsub",
	// or empty to disable event publishing.
	MQBackend string `env:"MQ_BACKEND"`
	RabbitMQ  RabbitMQConfig
	PubSub    PubSubConfig

	// StorageBackend selects receipt archival storage: "minio", "gcs",
	// or empty to disable archival.
	StorageBackend string `env:"STORAGE_BACKEND"`
	Minio          MinioConfig
	GCS            GCSConfig
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"maplecart"`
	Password string `env:"DB_PASSWORD" envDefault:"password"`
	DBName   string `env:"DB_NAME" envDefault:"maplecart_db"`
	UseSSL   bool   `env:"DB_SSL" envDefault:"false"`
}

type RabbitMQConfig struct {
	URL             string `env:"RABBITMQ_URL"`
	QueueDurable    bool   `env:"RABBITMQ_QUEUE_DURABLE" envDefault:"true"`
	QueueAutoDelete bool   `env:"RABBITMQ_QUEUE_AUTO_DELETE" envDefault:"false"`
	PrefetchCount   int    `env:"RABBITMQ_PREFETCH_COUNT" envDefault:"0"`
}

type PubSubConfig struct {
	ProjectID       string `env:"PUBSUB_PROJECT_ID"`
	CredentialsFile string `env:"PUBSUB_CREDENTIALS_FILE"`
}

type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" envDefault:"maplecart-receipts"`
	UseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

type GCSConfig struct {
	Bucket          string `env:"GCS_BUCKET"`
	ProjectID       string `env:"GCS_PROJECT_ID"`
	CredentialsFile string `env:"GCS_CREDENTIALS_FILE"`
}

// LoadConfig parses the environment into a Config. In development a local
// .env file is loaded first.
func LoadConfig() (Config, error) {
	if os.Getenv("APP_ENV") == "" || os.Getenv("APP_ENV") == "development" {
		godotenv.Load()
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in production mode.
// It controls the Secure attribute on the session cookie and how much
// error detail reaches clients.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}
