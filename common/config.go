package common

import (
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultClientNamePrefix prefixes generated client names
const DefaultClientNamePrefix = `goiobroker.client`

// Credentials authenticate the client against the server
type Credentials struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"` //nolint:gosec // configuration field
}

// Config describes how a Client connects.  It must not be modified once the
// Client has been created.
type Config struct {
	ClientName  string       `yaml:"client_name"`
	Host        string       `yaml:"host"`
	Port        int          `yaml:"port"`
	Secure      bool         `yaml:"secure"`
	Credentials *Credentials `yaml:"credentials"`
	// HistoryAdapter is the history instance used by the history helpers,
	// DefaultHistoryAdapter when empty
	HistoryAdapter string `yaml:"history_adapter"`
	// AutoConnect makes the Client open the transport itself.  When false,
	// the program is expected to open the transport.
	AutoConnect    bool     `yaml:"auto_connect"`
	AutoSubscribes []string `yaml:"auto_subscribes"`

	BootstrapTimeout  time.Duration `yaml:"bootstrap_timeout"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

// LoadConfig reads a YAML file and returns a Config.  Environment variables
// referenced as ${VAR} or $VAR are expanded before parsing, so credentials can
// stay out of the file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // caller-provided configuration
	if err != nil {
		return Config{}, fmt.Errorf("common: load config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration, expanding environment variables
func ParseConfig(data []byte) (Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("common: parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration can be used to connect
func (c Config) Validate() error {
	if c.Host == `` {
		return fmt.Errorf("common: config: host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("common: config: port %d out of range", c.Port)
	}
	if c.Credentials != nil && c.Credentials.User == `` {
		return fmt.Errorf("common: config: credentials: user is required")
	}
	for _, id := range c.AutoSubscribes {
		if strings.TrimSpace(id) == `` {
			return fmt.Errorf("common: config: empty auto subscribe id")
		}
	}
	if c.BootstrapTimeout < 0 || c.RequestTimeout < 0 || c.ReconnectInterval < 0 {
		return fmt.Errorf("common: config: negative duration")
	}
	return nil
}

// WithDefaults returns a copy of c with unset durations and the history
// adapter filled in
func (c Config) WithDefaults() Config {
	if c.HistoryAdapter == `` {
		c.HistoryAdapter = DefaultHistoryAdapter
	}
	if c.BootstrapTimeout == 0 {
		c.BootstrapTimeout = DefaultBootstrapTimeout
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultTimeout
	}
	if c.ReconnectInterval == 0 {
		c.ReconnectInterval = DefaultReconnectInterval
	}
	return c
}

// Scheme returns the URL scheme of the server
func (c Config) Scheme() string {
	if c.Secure {
		return `https`
	}
	return `http`
}

// NameGenerator produces a client name when none is configured
type NameGenerator func() string

// RandomClientName generates DefaultClientNamePrefix followed by a number in
// [0,500)
func RandomClientName() string {
	return DefaultClientNamePrefix + strconv.Itoa(rand.Intn(500)) //nolint:gosec // not security relevant
}

// BuildConnectOptions derives the connection descriptor from cfg, calling gen
// for a name when cfg has none.  A nil gen means RandomClientName.
func BuildConnectOptions(cfg Config, gen NameGenerator) ConnectOptions {
	name := cfg.ClientName
	if name == `` {
		if gen == nil {
			gen = RandomClientName
		}
		name = gen()
	}

	var query strings.Builder
	if cfg.Credentials != nil {
		query.WriteString(`key=nokey&user=`)
		query.WriteString(url.QueryEscape(cfg.Credentials.User))
		query.WriteString(`&pass=`)
		query.WriteString(url.QueryEscape(cfg.Credentials.Password))
		query.WriteString(`&`)
	}
	query.WriteString(`EIO=3&transport=websocket`)

	host := cfg.Host
	if strings.Contains(host, `:`) && !strings.HasPrefix(host, `[`) {
		host = `[` + host + `]`
	}

	return ConnectOptions{
		Name: name,
		URL:  fmt.Sprintf("%s://%s:%d/?%s", cfg.Scheme(), host, cfg.Port, query.String()),
	}
}
