package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds the scraper configuration
type AppConfig struct {
	BaseURL           string        `yaml:"base_url"`
	EntityPath        string        `yaml:"entity_path,omitempty"` // Path segment before the identifier, e.g. "athletes"
	UserAgent         string        `yaml:"user_agent,omitempty"`
	AcceptLanguage    string        `yaml:"accept_language,omitempty"`
	StartID           int           `yaml:"start_id"`
	Concurrency       int           `yaml:"concurrency"`
	Delay             time.Duration `yaml:"delay"` // Politeness base delay; each task sleeps delay + rand[0,1)*delay
	StopThreshold     int           `yaml:"stop_threshold"`
	OutputPath        string        `yaml:"output_path"`
	CheckpointPath    string        `yaml:"checkpoint_path"`
	StateDir          string        `yaml:"state_dir"` // Attempt ledger (Badger) directory
	MaxRetries        int           `yaml:"max_retries,omitempty"`
	RetryDelayMin     time.Duration `yaml:"retry_delay_min,omitempty"`
	RetryDelayMax     time.Duration `yaml:"retry_delay_max,omitempty"`
	RequestsPerSecond float64       `yaml:"requests_per_second,omitempty"` // 0 = unlimited
	MaxPageSizeBytes  int64         `yaml:"max_page_size_bytes,omitempty"`
	ProgressEvery     int           `yaml:"progress_every,omitempty"`
	MetricsAddr       string        `yaml:"metrics_addr,omitempty"` // Empty disables the /metrics endpoint
	LogFile           string        `yaml:"log_file,omitempty"`

	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// Load reads a YAML config file. A missing file is not an error: the zero
// config is returned and Validate fills in every default.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// EntityURL builds the document URL for an identifier
func (c *AppConfig) EntityURL(id int) string {
	return fmt.Sprintf("%s/%s/%d", c.BaseURL, c.EntityPath, id)
}
