package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Sriram-PR/olympedia-scraper/pkg/utils"
)

const (
	DefaultBaseURL        = "https://www.olympedia.org"
	DefaultEntityPath     = "athletes"
	DefaultUserAgent      = "OlympediaBulkScraper/1.1 (+https://example.com)"
	DefaultAcceptLanguage = "en;q=0.9"
	DefaultStartID        = 1
	DefaultConcurrency    = 10
	DefaultDelay          = 400 * time.Millisecond
	DefaultStopThreshold  = 1000
	DefaultOutputPath     = "athletes.csv"
	DefaultCheckpointPath = "progress.json"
	DefaultStateDir       = "./scraper_state"
	DefaultMaxRetries     = 2
	DefaultMaxPageSize    = 10 * 1024 * 1024
	DefaultProgressEvery  = 100
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// BaseURL
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	u, parseErr := url.Parse(c.BaseURL)
	if parseErr != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return warnings, fmt.Errorf("%w: base_url '%s' must be an absolute http(s) URL", utils.ErrConfigValidation, c.BaseURL)
	}

	// EntityPath
	c.EntityPath = strings.Trim(c.EntityPath, "/")
	if c.EntityPath == "" {
		c.EntityPath = DefaultEntityPath
	}

	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.AcceptLanguage == "" {
		c.AcceptLanguage = DefaultAcceptLanguage
	}

	// StartID
	if c.StartID <= 0 {
		if c.StartID < 0 {
			warnings = append(warnings, fmt.Sprintf("start_id cannot be negative, defaulting to %d", DefaultStartID))
		}
		c.StartID = DefaultStartID
	}

	// Concurrency
	if c.Concurrency <= 0 {
		warnings = append(warnings, fmt.Sprintf("concurrency should be > 0, defaulting to %d", DefaultConcurrency))
		c.Concurrency = DefaultConcurrency
	}

	// Delay
	if c.Delay < 0 {
		warnings = append(warnings, fmt.Sprintf("delay cannot be negative, defaulting to %v", DefaultDelay))
		c.Delay = DefaultDelay
	}
	if c.Delay == 0 {
		c.Delay = DefaultDelay
	}

	// StopThreshold
	if c.StopThreshold <= 0 {
		warnings = append(warnings, fmt.Sprintf("stop_threshold should be > 0, defaulting to %d", DefaultStopThreshold))
		c.StopThreshold = DefaultStopThreshold
	}

	// OutputPath
	if c.OutputPath == "" {
		warnings = append(warnings, fmt.Sprintf("output_path is empty, defaulting to '%s'", DefaultOutputPath))
		c.OutputPath = DefaultOutputPath
	}

	// CheckpointPath
	if c.CheckpointPath == "" {
		warnings = append(warnings, fmt.Sprintf("checkpoint_path is empty, defaulting to '%s'", DefaultCheckpointPath))
		c.CheckpointPath = DefaultCheckpointPath
	}
	if c.CheckpointPath == c.OutputPath {
		return warnings, fmt.Errorf("%w: checkpoint_path and output_path must differ ('%s')", utils.ErrConfigValidation, c.OutputPath)
	}

	// StateDir
	if c.StateDir == "" {
		warnings = append(warnings, fmt.Sprintf("state_dir is empty, defaulting to '%s'", DefaultStateDir))
		c.StateDir = DefaultStateDir
	}

	// MaxRetries
	if c.MaxRetries < 0 {
		warnings = append(warnings, "max_retries cannot be negative, setting to 0")
		c.MaxRetries = 0
	}
	if c.MaxRetries == 0 && c.RetryDelayMin == 0 {
		c.MaxRetries = DefaultMaxRetries
	}

	// Retry delays (only if retries enabled)
	if c.MaxRetries > 0 {
		if c.RetryDelayMin <= 0 {
			c.RetryDelayMin = 1 * time.Second
		}
		if c.RetryDelayMax <= 0 {
			c.RetryDelayMax = 2 * time.Second
		}
	}

	// RetryDelayMin > RetryDelayMax check
	if c.RetryDelayMin > c.RetryDelayMax && c.RetryDelayMax > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"retry_delay_min (%v) > retry_delay_max (%v), using retry_delay_min for both",
			c.RetryDelayMin, c.RetryDelayMax))
		c.RetryDelayMax = c.RetryDelayMin
	}

	// RequestsPerSecond
	if c.RequestsPerSecond < 0 {
		warnings = append(warnings, "requests_per_second cannot be negative, disabling the global limit")
		c.RequestsPerSecond = 0
	}

	// MaxPageSizeBytes
	if c.MaxPageSizeBytes < 0 {
		warnings = append(warnings, "max_page_size_bytes cannot be negative, using the default")
		c.MaxPageSizeBytes = 0
	}
	if c.MaxPageSizeBytes == 0 {
		c.MaxPageSizeBytes = DefaultMaxPageSize
	}

	// ProgressEvery
	if c.ProgressEvery <= 0 {
		c.ProgressEvery = DefaultProgressEvery
	}

	// HTTPClientSettings defaults
	c.validateHTTPClientSettings()

	return warnings, nil
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClientSettings
	if h.Timeout <= 0 {
		h.Timeout = 15 * time.Second
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		// Every request targets the same host
		h.MaxIdleConnsPerHost = c.Concurrency
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}
