package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "50051", cfg.Server.GRPCPort)
	assert.Equal(t, 600*time.Second, cfg.Server.ServerTimeout)
	assert.Equal(t, "https://www.facebook.com/ads/library/async/search_ads/", cfg.AdLibrary.Endpoint)
	assert.Equal(t, "2c4a00", cfg.AdLibrary.Version)
	assert.Equal(t, time.Second, cfg.Performance.PageDelay)
	assert.Equal(t, 30, cfg.Performance.PageSize)
	assert.Equal(t, "ad_details_sorted_by_collation_count.xlsx", cfg.Export.Filename)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("GRPC_SERVER_PORT", "6000")
	t.Setenv("AD_LIBRARY_ENDPOINT", "http://localhost:9999/search")
	t.Setenv("AD_LIBRARY_COOKIE", "c_user=1")
	t.Setenv("AD_LIBRARY_SESSION_ID", "sess")
	t.Setenv("PAGE_DELAY_MS", "250")
	t.Setenv("PAGE_SIZE", "10")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "6000", cfg.Server.GRPCPort)
	assert.Equal(t, "http://localhost:9999/search", cfg.AdLibrary.Endpoint)
	assert.Equal(t, "c_user=1", cfg.AdLibrary.Cookie)
	assert.Equal(t, 250*time.Millisecond, cfg.Performance.PageDelay)
	assert.Equal(t, 10, cfg.Performance.PageSize)
	assert.True(t, cfg.Logging.Development)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PAGE_SIZE", "many")
	t.Setenv("PAGE_DELAY_MS", "soon")
	t.Setenv("LOG_DEVELOPMENT", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Performance.PageSize)
	assert.Equal(t, time.Second, cfg.Performance.PageDelay)
	assert.False(t, cfg.Logging.Development)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad endpoint", mutate: func(c *Config) { c.AdLibrary.Endpoint = "ftp://x" }, wantErr: true},
		{name: "negative delay", mutate: func(c *Config) { c.Performance.PageDelay = -time.Second }, wantErr: true},
		{name: "zero page size", mutate: func(c *Config) { c.Performance.PageSize = 0 }, wantErr: true},
		{name: "zero batch size", mutate: func(c *Config) { c.Server.MaxBatchItems = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Server:      ServerConfig{MaxBatchItems: 5},
				AdLibrary:   AdLibraryConfig{Endpoint: "https://example.com/search", Cookie: "c", SessionID: "s"},
				Performance: PerformanceConfig{PageDelay: time.Second, PageSize: 30},
			}
			tt.mutate(c)

			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
