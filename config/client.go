package config

import (
	"fmt"

	"collablist/pkg/listsync"
	"collablist/store"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ClientConfig is what the terminal client needs at startup. All values are
// resolved once; command-line flags may override them afterwards.
type ClientConfig struct {
	AppID       string `env:"APP_ID" envDefault:"default-app-id"`
	StoreConfig string `env:"STORE_CONFIG"` // JSON object, e.g. {"url":"http://localhost:8080"}
	AuthToken   string `env:"INITIAL_AUTH_TOKEN"`
	Collection  string `env:"COLLECTION" envDefault:"movie_jukebox"`
	LogFile     string `env:"LOG_FILE" envDefault:"jukebox.log"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing env config: %w", err)
	}
	return &cfg, nil
}

// ListSync converts the client configuration into the sync component's config.
// A malformed STORE_CONFIG is reported as a *listsync.ConfigError.
func (c *ClientConfig) ListSync() (listsync.Config, error) {
	storeCfg, err := listsync.ParseStoreConfig(c.StoreConfig)
	if err != nil {
		return listsync.Config{}, err
	}
	return listsync.Config{
		AppID: c.AppID,
		Store: storeCfg,
		Token: c.AuthToken,
	}, nil
}

// Path is the collection path the client reads and writes.
func (c *ClientConfig) Path() store.CollectionPath {
	return store.NewCollectionPath(c.AppID, c.Collection)
}
