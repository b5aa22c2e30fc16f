package listsync

import (
	"encoding/json"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// Config holds the three values resolved once at startup.
type Config struct {
	AppID string
	// Store is the connection configuration; nil means absent.
	Store *StoreConfig
	// Token is an optional pre-issued auth token.
	Token string
}

type StoreConfig struct {
	URL     string
	Timeout time.Duration
}

type storeConfigJSON struct {
	URL     string `json:"url"`
	Timeout string `json:"timeout,omitempty"`
}

// ParseStoreConfig reads the JSON store configuration, e.g.
// {"url":"http://localhost:8080","timeout":"10s"}. An empty string or an
// empty object yields nil, which Connect rejects.
func ParseStoreConfig(raw string) (*StoreConfig, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var wire storeConfigJSON
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, &ConfigError{Reason: "store configuration is not valid JSON", Err: err}
	}
	if wire == (storeConfigJSON{}) {
		return nil, nil
	}

	cfg := &StoreConfig{URL: strings.TrimRight(strings.TrimSpace(wire.URL), "/")}
	if wire.Timeout != "" {
		d, err := time.ParseDuration(wire.Timeout)
		if err != nil {
			return nil, &ConfigError{Reason: "store timeout is not a duration", Err: err}
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Store == nil {
		return &ConfigError{Reason: "store configuration is missing"}
	}
	if c.Store.URL == "" {
		return &ConfigError{Reason: "store url is missing"}
	}
	if !strings.HasPrefix(c.Store.URL, "http://") && !strings.HasPrefix(c.Store.URL, "https://") {
		return &ConfigError{Reason: "store url must be http or https: " + c.Store.URL}
	}
	if c.AppID == "" {
		return &ConfigError{Reason: "app id is missing"}
	}
	return nil
}

func (s *StoreConfig) timeout() time.Duration {
	if s.Timeout <= 0 {
		return defaultTimeout
	}
	return s.Timeout
}

// wsURL maps the store's base URL to its WebSocket endpoint.
func (s *StoreConfig) wsURL() string {
	if strings.HasPrefix(s.URL, "https://") {
		return "wss://" + strings.TrimPrefix(s.URL, "https://") + "/ws"
	}
	return "ws://" + strings.TrimPrefix(s.URL, "http://") + "/ws"
}
