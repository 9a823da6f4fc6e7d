package config

import (
	"errors"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/pelletier/go-toml"
)

const (
	DefaultBaseURL       = "https://hodlhodl.com/api/"
	DefaultListenAddress = "0.0.0.0:8545"

	DefaultDelay       = time.Second
	DefaultTimeout     = time.Duration(0) // HTTP library default
	DefaultRunInterval = time.Minute * 10

	DefaultTotalOfferPercentToScrape = 100
)

var (
	ErrInvalidListenAddress = errors.New("invalid listen address")
	ErrInvalidBaseURL       = errors.New("invalid base URL")
	ErrInvalidDelay         = errors.New("invalid delay")
	ErrInvalidTimeout       = errors.New("invalid timeout")
	ErrInvalidRunInterval   = errors.New("invalid run interval")
	ErrInvalidOfferPercent  = errors.New("invalid total offer percent to scrape")
)

var listenAddressRegex = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}:\d+$`)

// Config defines the base-level offersync configuration
type Config struct {
	// The associated CORS config for the status API, if any
	CORSConfig *CORS `toml:"cors_config"`

	// The marketplace API root, including the trailing slash
	BaseURL string `toml:"base_url"`

	// The upstream proxy URL. Accepted, but not applied to requests
	Proxy string `toml:"proxy"`

	// The address at which the status API will be served.
	// Format should be: <IP>:<PORT>
	ListenAddress string `toml:"listen_address"`

	// The fixed pause after each processed currency
	Delay time.Duration `toml:"delay"`

	// The per-request HTTP timeout. 0 keeps the HTTP library default
	Timeout time.Duration `toml:"timeout"`

	// The pause between two scheduled runs (serve mode)
	RunInterval time.Duration `toml:"run_interval"`

	// Accepted for compatibility, every fetched offer is processed
	TotalOfferPercentToScrape int `toml:"total_offer_percent_to_scrape"`

	// Flag indicating if units are delegated to the task runner
	Orchestrated bool `toml:"orchestrated"`
}

// DefaultConfig returns the default offersync configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:                   DefaultBaseURL,
		ListenAddress:             DefaultListenAddress,
		Delay:                     DefaultDelay,
		Timeout:                   DefaultTimeout,
		RunInterval:               DefaultRunInterval,
		TotalOfferPercentToScrape: DefaultTotalOfferPercentToScrape,
		CORSConfig:                DefaultCORSConfig(),
	}
}

// ValidateConfig validates the offersync configuration
func ValidateConfig(config *Config) error {
	// Validate the listen address
	if !listenAddressRegex.MatchString(config.ListenAddress) {
		return ErrInvalidListenAddress
	}

	// Validate the marketplace URL
	u, err := url.Parse(config.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidBaseURL
	}

	if config.Delay < 0 {
		return ErrInvalidDelay
	}

	if config.Timeout < 0 {
		return ErrInvalidTimeout
	}

	if config.RunInterval <= 0 {
		return ErrInvalidRunInterval
	}

	if config.TotalOfferPercentToScrape < 0 || config.TotalOfferPercentToScrape > 100 {
		return ErrInvalidOfferPercent
	}

	return nil
}

// Read reads the configuration from the given path.
// Fields missing from the file keep their default values
func Read(path string) (*Config, error) {
	// Read the config file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse it
	cfg := DefaultConfig()

	if err := toml.Unmarshal(content, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
