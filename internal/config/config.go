package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config contains server configuration parameters.
type Config struct {
	LogLevel  int     `env:"LOG_LEVEL" envDefault:"0"`
	LogFormat string  `env:"LOG_FORMAT" envDefault:"text"`
	Mongo     Mongo   `envPrefix:"MONGODB_"`
	HTTP      HTTP    `envPrefix:"HTTP_"`
	GRPC      GRPC    `envPrefix:"GRPC_"`
	Metrics   Metrics `envPrefix:"METRICS_"`
}

// Mongo contains database connection parameters.
// URI has no default: an empty value is rejected when connecting.
type Mongo struct {
	URI            string        `env:"URI"`
	Database       string        `env:"DATABASE" envDefault:"usergraph"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

// HTTP contains parameters of the GraphQL HTTP server.
type HTTP struct {
	Port               string `env:"PORT" envDefault:"4000"`
	GraphQLPath        string `env:"GRAPHQL_PATH" envDefault:"/graphql"`
	Playground         bool   `env:"PLAYGROUND" envDefault:"true"`
	EnableHTTPS        bool   `env:"ENABLE_HTTPS" envDefault:"false"`
	CertFileName       string `env:"CERT_FILE_NAME" envDefault:"cert.pem"`
	PrivateKeyFileName string `env:"PRIVATE_KEY_FILE_NAME" envDefault:"key.pem"`
}

// GRPC contains parameters of the gRPC health server.
type GRPC struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Port    string `env:"PORT" envDefault:"50051"`
}

// Metrics contains Prometheus exposition parameters.
type Metrics struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Path    string `env:"PATH" envDefault:"/metrics"`
}

// NewConfig loads configuration from an optional .env file and environment variables.
// Variables already present in the environment take precedence over the file.
func NewConfig() (*Config, error) {
	return load(".env")
}

func load(dotenv string) (*Config, error) {
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", dotenv, err)
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
