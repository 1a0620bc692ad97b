/*
Package config contains the client configuration: the network to connect
to, RPC client tuning, transaction and waiter defaults, logging and
auxiliary services. Configurations are YAML files, one per network.
*/
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/nspcc-dev/avail-go/pkg/config/netmode"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is the default path to the config directory.
	DefaultConfigPath = "./config"
	// DefaultMortality is the default transaction mortality period.
	DefaultMortality = 32
	// MaxMortality is the maximum mortality period supported by the era
	// encoding.
	MaxMortality = 1 << 16
	// DefaultSS58Prefix is the generic Substrate address prefix Avail uses.
	DefaultSS58Prefix = 42
)

// Version is the version of the client, set at build time.
var Version string

// Wait targets for Waiter.WaitFor.
const (
	WaitForInclusion    = "inclusion"
	WaitForFinalization = "finalization"
)

type (
	// Config is the top level configuration structure.
	Config struct {
		Network netmode.Network `yaml:"Network"`
		// SS58Prefix is used to format addresses if the node doesn't report
		// it.
		SS58Prefix   uint16       `yaml:"SS58Prefix"`
		RPC          RPC          `yaml:"RPC"`
		Transactions Transactions `yaml:"Transactions"`
		Waiter       Waiter       `yaml:"Waiter"`
		Logger       Logger       `yaml:"Logger"`
		Prometheus   BasicService `yaml:"Prometheus"`
		Journal      Journal      `yaml:"Journal"`
	}

	// RPC contains RPC client settings.
	RPC struct {
		// Endpoint is the node RPC address, ws(s):// endpoints enable
		// subscriptions.
		Endpoint        string        `yaml:"Endpoint"`
		DialTimeout     time.Duration `yaml:"DialTimeout"`
		RequestTimeout  time.Duration `yaml:"RequestTimeout"`
		MaxConnsPerHost int           `yaml:"MaxConnsPerHost"`
		// RetryOnError is true if not specified.
		RetryOnError *bool `yaml:"RetryOnError,omitempty"`
		// Backoff is the retry delay ladder, its last element is used
		// first.
		Backoff []time.Duration `yaml:"Backoff"`
	}

	// Transactions contains transaction defaults.
	Transactions struct {
		AppID     uint32 `yaml:"AppID"`
		Tip       uint64 `yaml:"Tip"`
		Mortality uint32 `yaml:"Mortality"`
		Immortal  bool   `yaml:"Immortal"`
	}

	// Waiter contains transaction awaiting settings.
	Waiter struct {
		// WaitFor is either "inclusion" or "finalization".
		WaitFor      string        `yaml:"WaitFor"`
		PollInterval time.Duration `yaml:"PollInterval"`
		RetryCount   int           `yaml:"RetryCount"`
		BlockTimeout uint32        `yaml:"BlockTimeout"`
	}

	// Logger contains logger configuration.
	Logger struct {
		LogEncoding  string `yaml:"LogEncoding"`
		LogLevel     string `yaml:"LogLevel"`
		LogPath      string `yaml:"LogPath"`
		LogTimestamp *bool  `yaml:"LogTimestamp,omitempty"`
	}

	// Journal is the submitted transactions journal configuration, no
	// journal is kept if FilePath is empty.
	Journal struct {
		FilePath string `yaml:"FilePath"`
	}
)

// Load attempts to load the config from the given path for the given
// network. The file name is avail.<network>.yml.
func Load(path string, net netmode.Network) (Config, error) {
	return LoadFile(filepath.Join(path, fmt.Sprintf("avail.%s.yml", net)))
}

// LoadFile loads config from the provided path.
func LoadFile(configPath string) (Config, error) {
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return Decode(configData)
}

// Decode parses YAML configuration, applies defaults and validates the
// result. Unknown fields are errors.
func Decode(data []byte) (Config, error) {
	var cfg = Config{
		SS58Prefix: DefaultSS58Prefix,
		Transactions: Transactions{
			Mortality: DefaultMortality,
		},
		Waiter: Waiter{
			WaitFor: WaitForInclusion,
		},
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.Network != "" {
		if _, err := netmode.Parse(string(c.Network)); err != nil {
			return err
		}
	}
	if c.SS58Prefix > 16383 {
		return fmt.Errorf("invalid SS58 prefix %d", c.SS58Prefix)
	}
	if err := c.RPC.Validate(); err != nil {
		return fmt.Errorf("RPC: %w", err)
	}
	if err := c.Transactions.Validate(); err != nil {
		return fmt.Errorf("transactions: %w", err)
	}
	if err := c.Waiter.Validate(); err != nil {
		return fmt.Errorf("waiter: %w", err)
	}
	if err := c.Prometheus.Validate(); err != nil {
		return fmt.Errorf("prometheus: %w", err)
	}
	return nil
}

// Validate checks RPC client settings.
func (r RPC) Validate() error {
	if r.Endpoint != "" {
		u, err := url.Parse(r.Endpoint)
		if err != nil {
			return fmt.Errorf("invalid endpoint: %w", err)
		}
		switch u.Scheme {
		case "http", "https", "ws", "wss":
		default:
			return fmt.Errorf("invalid endpoint scheme %q", u.Scheme)
		}
	}
	for i, d := range r.Backoff {
		if d <= 0 {
			return fmt.Errorf("non-positive backoff delay #%d", i)
		}
	}
	return nil
}

// Retry returns the retry setting, it's true by default.
func (r RPC) Retry() bool {
	return r.RetryOnError == nil || *r.RetryOnError
}

// IsWebSocket returns true for ws:// and wss:// endpoints.
func (r RPC) IsWebSocket() bool {
	u, err := url.Parse(r.Endpoint)
	return err == nil && (u.Scheme == "ws" || u.Scheme == "wss")
}

// Validate checks transaction defaults.
func (t Transactions) Validate() error {
	if !t.Immortal && (t.Mortality < 4 || t.Mortality > MaxMortality) {
		return fmt.Errorf("mortality %d is out of [4, %d] range", t.Mortality, MaxMortality)
	}
	return nil
}

// Validate checks waiter settings.
func (w Waiter) Validate() error {
	switch w.WaitFor {
	case WaitForInclusion, WaitForFinalization:
	default:
		return fmt.Errorf("invalid WaitFor %q", w.WaitFor)
	}
	if w.PollInterval < 0 {
		return errors.New("negative PollInterval")
	}
	if w.RetryCount < 0 {
		return errors.New("negative RetryCount")
	}
	return nil
}
