package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port        string `env:"PORT" envDefault:"8090"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"console"`

	// Backend configuration
	APIBase         string        `env:"API_BASE"`
	APIBaseFallback string        `env:"API_BASE_FALLBACK" envDefault:"https://api.ingressai.com.br/api"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`

	// Hosts an ?api= override may point at. Development accepts any host.
	APIOverrideHosts []string `env:"API_OVERRIDE_HOSTS" envSeparator:","`

	// Session storage
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"data/storefront.db"`
	RedisURL      string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// PubNub configuration
	PubNubPublishKey   string `env:"PUBNUB_PUBLISH_KEY"`
	PubNubSubscribeKey string `env:"PUBNUB_SUBSCRIBE_KEY"`
	PubNubSecretKey    string `env:"PUBNUB_SECRET_KEY"`
	PubNubChannel      string `env:"PUBNUB_CHANNEL" envDefault:"storefront-activity"`

	// Storefront
	SupportWhatsApp string        `env:"SUPPORT_WHATSAPP" envDefault:"5534991551802"`
	DashboardURL    string        `env:"DASHBOARD_URL" envDefault:"https://ingressai.com.br/dashboard"`
	Locale          string        `env:"LOCALE" envDefault:"pt-BR"`
	SearchDebounce  time.Duration `env:"SEARCH_DEBOUNCE" envDefault:"250ms"`
	WorkQueueSize   int           `env:"WORK_QUEUE_SIZE" envDefault:"64"`

	// Visitor state without a live stream is dropped after this long; the
	// persisted organizer session outlives it.
	ClientIdleTTL time.Duration `env:"CLIENT_IDLE_TTL" envDefault:"30m"`

	// Monitoring
	EnableMetrics bool `env:"ENABLE_METRICS" envDefault:"true"`

	// Requests per minute per client on the login routes.
	AuthRateLimit int `env:"AUTH_RATE_LIMIT" envDefault:"10"`
}

// LoadConfig reads an optional .env file, then the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.WorkQueueSize <= 0 {
		cfg.WorkQueueSize = 64
	}
	return cfg, nil
}

// Endpoints resolves the configured API base, honouring an override such
// as the ?api= query parameter.
func (c *Config) Endpoints(override string) Endpoints {
	return NewEndpoints(ResolveAPIBase(override, c.APIBase, c.APIBaseFallback))
}

// OverrideAllowed reports whether an ?api= override may switch a visitor
// to apiBase.
func (c *Config) OverrideAllowed(apiBase string) bool {
	u, err := url.Parse(apiBase)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	if c.Environment == "development" {
		return true
	}
	for _, h := range c.APIOverrideHosts {
		h = strings.TrimSpace(h)
		if strings.EqualFold(h, u.Host) || strings.EqualFold(h, u.Hostname()) {
			return true
		}
	}
	return false
}

// ResolveAPIBase returns the first non-empty base in priority order:
// query parameter, injected runtime config, fallback literal.
func ResolveAPIBase(queryParam, injected, fallback string) string {
	for _, candidate := range []string{queryParam, injected, fallback} {
		if base := strings.TrimRight(strings.TrimSpace(candidate), "/"); base != "" {
			return base
		}
	}
	return ""
}

// RootBase strips one trailing /api segment from base.
func RootBase(base string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(strings.ToLower(base), "/api") {
		return base[:len(base)-len("/api")]
	}
	return base
}

// Endpoints is the pair of bases every backend call is built from.
type Endpoints struct {
	API  string
	Root string
}

func NewEndpoints(apiBase string) Endpoints {
	apiBase = strings.TrimRight(apiBase, "/")
	return Endpoints{API: apiBase, Root: RootBase(apiBase)}
}

// URL joins path onto the API base.
func (e Endpoints) URL(path string) string {
	return e.API + path
}

// Candidates returns the API then root URL for path, collapsed when the
// API base carries no /api suffix.
func (e Endpoints) Candidates(path string) []string {
	api := e.API + path
	root := e.Root + path
	if root == api {
		return []string{api}
	}
	return []string{api, root}
}
