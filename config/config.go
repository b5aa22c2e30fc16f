package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	ErrMissingJWTSecret = errors.New("JWT_SECRET is not set")
	ErrMissingDatabase  = errors.New("database host or name is not set")
	ErrUnknownStorage   = errors.New("STORAGE must be postgres or memory")
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config is the store server configuration, read from the environment
// (optionally seeded from a .env file).
type Config struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	JWTSecret    string        `env:"JWT_SECRET"`
	TokenIssuer  string        `env:"TOKEN_ISSUER" envDefault:"collablist"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	SyncInterval time.Duration `env:"SYNC_INTERVAL" envDefault:"10s"`
	Storage      string        `env:"STORAGE" envDefault:"postgres"`
	DB           Database      `envPrefix:"DB_"`
}

type Database struct {
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	Name     string `env:"NAME"`
	SSLMode  string `env:"SSLMODE" envDefault:"require"`
}

func (d Database) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// Load reads .env when present and parses the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	switch c.Storage {
	case StorageMemory:
		return nil
	case StoragePostgres:
		if c.DB.Host == "" || c.DB.Name == "" {
			return ErrMissingDatabase
		}
		return nil
	default:
		return ErrUnknownStorage
	}
}
