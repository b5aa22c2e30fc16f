package listsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStoreConfig(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *StoreConfig
		wantErr bool
	}{
		{name: "absent", raw: "", want: nil},
		{name: "empty object", raw: "{}", want: nil},
		{name: "url only", raw: `{"url":"http://localhost:8080/"}`, want: &StoreConfig{URL: "http://localhost:8080"}},
		{name: "with timeout", raw: `{"url":"https://store.example","timeout":"3s"}`, want: &StoreConfig{URL: "https://store.example", Timeout: 3 * time.Second}},
		{name: "malformed", raw: "{url:", wantErr: true},
		{name: "bad timeout", raw: `{"url":"http://x","timeout":"soon"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStoreConfig(tt.raw)
			if tt.wantErr {
				var cfgErr *ConfigError
				assert.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConnectRequiresStoreConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no store", cfg: Config{AppID: "app"}},
		{name: "no url", cfg: Config{AppID: "app", Store: &StoreConfig{}}},
		{name: "bad scheme", cfg: Config{AppID: "app", Store: &StoreConfig{URL: "ftp://x"}}},
		{name: "no app id", cfg: Config{Store: &StoreConfig{URL: "http://x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := Connect(context.Background(), tt.cfg)
			assert.Nil(t, session)
			var cfgErr *ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestWebSocketURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080/ws", (&StoreConfig{URL: "http://localhost:8080"}).wsURL())
	assert.Equal(t, "wss://store.example/ws", (&StoreConfig{URL: "https://store.example"}).wsURL())
}
