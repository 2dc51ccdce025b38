package config

import (
	"strings"
	"testing"
	"time"

	"github.com/Sriram-PR/olympedia-scraper/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfig_Validate_Defaults(t *testing.T) {
	cfg := AppConfig{} // Zero value
	warnings, err := cfg.Validate()

	require.NoError(t, err)

	// Check defaults applied
	assert.Equal(t, "https://www.olympedia.org", cfg.BaseURL)
	assert.Equal(t, "athletes", cfg.EntityPath)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, "en;q=0.9", cfg.AcceptLanguage)
	assert.Equal(t, 1, cfg.StartID)
	assert.Equal(t, 10, cfg.Concurrency)
	assert.Equal(t, 400*time.Millisecond, cfg.Delay)
	assert.Equal(t, 1000, cfg.StopThreshold)
	assert.Equal(t, "athletes.csv", cfg.OutputPath)
	assert.Equal(t, "progress.json", cfg.CheckpointPath)
	assert.Equal(t, "./scraper_state", cfg.StateDir)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 1*time.Second, cfg.RetryDelayMin)
	assert.Equal(t, 2*time.Second, cfg.RetryDelayMax)
	assert.Equal(t, float64(0), cfg.RequestsPerSecond)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxPageSizeBytes)
	assert.Equal(t, 100, cfg.ProgressEvery)

	// Check HTTP client defaults
	assert.Equal(t, 15*time.Second, cfg.HTTPClientSettings.Timeout)
	assert.Equal(t, 100, cfg.HTTPClientSettings.MaxIdleConns)
	assert.Equal(t, 10, cfg.HTTPClientSettings.MaxIdleConnsPerHost)
	assert.Equal(t, 90*time.Second, cfg.HTTPClientSettings.IdleConnTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTPClientSettings.TLSHandshakeTimeout)
	assert.Equal(t, 1*time.Second, cfg.HTTPClientSettings.ExpectContinueTimeout)
	assert.Equal(t, 15*time.Second, cfg.HTTPClientSettings.DialerTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTPClientSettings.DialerKeepAlive)

	// Check warnings generated
	assert.True(t, containsWarning(warnings, "concurrency should be > 0"))
	assert.True(t, containsWarning(warnings, "stop_threshold should be > 0"))
	assert.True(t, containsWarning(warnings, "output_path is empty"))
	assert.True(t, containsWarning(warnings, "checkpoint_path is empty"))
	assert.True(t, containsWarning(warnings, "state_dir is empty"))
}

func TestAppConfig_Validate_ValidConfig(t *testing.T) {
	cfg := AppConfig{
		BaseURL:        "http://localhost:8080/",
		EntityPath:     "/entities/",
		StartID:        50,
		Concurrency:    4,
		Delay:          time.Second,
		StopThreshold:  25,
		OutputPath:     "/out/rows.csv",
		CheckpointPath: "/out/progress.json",
		StateDir:       "/state",
		MaxRetries:     5,
		RetryDelayMin:  500 * time.Millisecond,
		RetryDelayMax:  3 * time.Second,
		HTTPClientSettings: HTTPClientConfig{
			Timeout:      30 * time.Second,
			MaxIdleConns: 50,
		},
	}

	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Empty(t, warnings)

	// Normalized but otherwise preserved
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "entities", cfg.EntityPath)
	assert.Equal(t, "http://localhost:8080/entities/42", cfg.EntityURL(42))
	assert.Equal(t, 50, cfg.StartID)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 25, cfg.StopThreshold)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.HTTPClientSettings.Timeout)
	assert.Equal(t, 4, cfg.HTTPClientSettings.MaxIdleConnsPerHost)
}

func TestAppConfig_Validate_NegativeValues(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*AppConfig)
		wantWarning string
		check       func(*testing.T, *AppConfig)
	}{
		{
			name: "negative max_retries",
			setup: func(c *AppConfig) {
				c.MaxRetries = -1
				c.RetryDelayMin = 1 * time.Second // Prevent default of 2 retries
			},
			wantWarning: "max_retries cannot be negative",
			check: func(t *testing.T, c *AppConfig) {
				assert.Equal(t, 0, c.MaxRetries)
			},
		},
		{
			name:        "negative delay",
			setup:       func(c *AppConfig) { c.Delay = -time.Second },
			wantWarning: "delay cannot be negative",
			check: func(t *testing.T, c *AppConfig) {
				assert.Equal(t, DefaultDelay, c.Delay)
			},
		},
		{
			name:        "negative start_id",
			setup:       func(c *AppConfig) { c.StartID = -5 },
			wantWarning: "start_id cannot be negative",
			check: func(t *testing.T, c *AppConfig) {
				assert.Equal(t, 1, c.StartID)
			},
		},
		{
			name:        "negative requests_per_second",
			setup:       func(c *AppConfig) { c.RequestsPerSecond = -2 },
			wantWarning: "requests_per_second cannot be negative",
			check: func(t *testing.T, c *AppConfig) {
				assert.Equal(t, float64(0), c.RequestsPerSecond)
			},
		},
		{
			name:        "negative max_page_size_bytes",
			setup:       func(c *AppConfig) { c.MaxPageSizeBytes = -1 },
			wantWarning: "max_page_size_bytes cannot be negative",
			check: func(t *testing.T, c *AppConfig) {
				assert.Equal(t, int64(DefaultMaxPageSize), c.MaxPageSizeBytes)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AppConfig{}
			tt.setup(&cfg)
			warnings, err := cfg.Validate()
			require.NoError(t, err)
			assert.True(t, containsWarning(warnings, tt.wantWarning), "warnings: %v", warnings)
			tt.check(t, &cfg)
		})
	}
}

func TestAppConfig_Validate_RetryDelayOrdering(t *testing.T) {
	cfg := AppConfig{
		MaxRetries:    2,
		RetryDelayMin: 5 * time.Second,
		RetryDelayMax: 1 * time.Second,
	}

	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.True(t, containsWarning(warnings, "retry_delay_min"))
	assert.Equal(t, 5*time.Second, cfg.RetryDelayMax)
}

func TestAppConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AppConfig
		wantMsg string
	}{
		{
			name:    "relative base url",
			cfg:     AppConfig{BaseURL: "olympedia.org"},
			wantMsg: "base_url",
		},
		{
			name:    "unsupported scheme",
			cfg:     AppConfig{BaseURL: "ftp://example.com"},
			wantMsg: "base_url",
		},
		{
			name:    "checkpoint collides with output",
			cfg:     AppConfig{OutputPath: "same.csv", CheckpointPath: "same.csv"},
			wantMsg: "must differ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, utils.ErrConfigValidation)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
