// Package config loads and validates the rpgtl.yaml configuration file.
//
// Values are resolved in three layers: built-in defaults, then the YAML
// file, then environment variables for secrets. Command-line flags are
// applied on top by the caller.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ZaguanLabs/rpgtl"
	"github.com/ZaguanLabs/rpgtl/cache"
	"golang.org/x/net/idna"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = "rpgtl.yaml"

// Environment variables read by ApplyEnv.
const (
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvRedisURL  = "RPGTL_REDIS_URL"
)

// Provider names.
const (
	ProviderLingva = "lingva"
	ProviderOpenAI = "openai"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level rpgtl.yaml structure.
type File struct {
	// SourceLang is the source language code (default "auto").
	SourceLang string `yaml:"source_lang,omitempty"`
	// TargetLang is the language every file is translated into.
	TargetLang string `yaml:"target_lang,omitempty"`
	// MaxConcurrent caps requests in flight (default 5).
	MaxConcurrent int `yaml:"max_concurrent,omitempty"`
	// MinDispatchIntervalMs is the minimum gap between request starts (default 500).
	MinDispatchIntervalMs *int `yaml:"min_dispatch_interval_ms,omitempty"`
	// Endpoints are Lingva API base URLs tried in order.
	Endpoints []string `yaml:"endpoints,omitempty"`
	// TimeoutSeconds is the per-request timeout (default 15).
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
	// Retries is how many times a retryable failure is re-queued (default 0).
	Retries int `yaml:"retries,omitempty"`
	// StickyEndpoint starts each request at the last endpoint that answered.
	StickyEndpoint bool `yaml:"sticky_endpoint,omitempty"`
	// Provider is "lingva" (default) or "openai".
	Provider string `yaml:"provider,omitempty"`

	OpenAI OpenAI `yaml:"openai,omitempty"`
	Cache  Cache  `yaml:"cache,omitempty"`
	Log    Log    `yaml:"log,omitempty"`
}

// OpenAI configures the OpenAI provider.
type OpenAI struct {
	APIKey            string `yaml:"api_key,omitempty"`
	Model             string `yaml:"model,omitempty"`
	BaseURL           string `yaml:"base_url,omitempty"`
	RequestsPerMinute int    `yaml:"requests_per_minute,omitempty"`
}

// Cache configures the translation cache.
type Cache struct {
	// Type: "memory", "redis", "sqlite" or "none".
	Type       string `yaml:"type,omitempty"`
	TTL        int    `yaml:"ttl,omitempty"`
	RedisURL   string `yaml:"redis_url,omitempty"`
	SQLitePath string `yaml:"sqlite_path,omitempty"`
	KeyPrefix  string `yaml:"key_prefix,omitempty"`
}

// Log configures the slog handler.
type Log struct {
	// Level: debug, info, warn or error.
	Level string `yaml:"level,omitempty"`
	// Format: text or json.
	Format string `yaml:"format,omitempty"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the built-in configuration.
func Default() *File {
	interval := int(rpgtl.DefaultQueueConfig().MinInterval / time.Millisecond)
	return &File{
		SourceLang:            rpgtl.AutoDetect,
		MaxConcurrent:         rpgtl.DefaultQueueConfig().MaxConcurrent,
		MinDispatchIntervalMs: &interval,
		Endpoints:             append([]string(nil), rpgtl.DefaultEndpoints...),
		TimeoutSeconds:        15,
		Provider:              ProviderLingva,
		OpenAI:                OpenAI{Model: "gpt-4o-mini"},
		Cache:                 Cache{Type: cache.TypeMemory, KeyPrefix: cache.DefaultKeyPrefix},
		Log:                   Log{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults. A missing file is an error only when
// required is true.
func Load(path string, required bool) (*File, error) {
	cfg := Default()

	data, err := os.ReadFile(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv fills secrets that were not set in the file.
func (f *File) ApplyEnv(getenv func(string) string) {
	if f.OpenAI.APIKey == "" {
		f.OpenAI.APIKey = getenv(EnvOpenAIKey)
	}
	if f.Cache.RedisURL == "" {
		f.Cache.RedisURL = getenv(EnvRedisURL)
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate checks the configuration and normalises endpoint hosts to their
// ASCII form.
func (f *File) Validate() error {
	if strings.TrimSpace(f.TargetLang) == "" {
		return &rpgtl.ValidationError{Field: "target_lang", Message: "must be specified"}
	}
	return f.ValidateShared()
}

// ValidateShared is Validate without the target_lang requirement, for
// services where every request names its own target.
func (f *File) ValidateShared() error {
	if f.MaxConcurrent <= 0 {
		return &rpgtl.ValidationError{Field: "max_concurrent", Message: "must be positive"}
	}
	if f.MinDispatchIntervalMs != nil && *f.MinDispatchIntervalMs < 0 {
		return &rpgtl.ValidationError{Field: "min_dispatch_interval_ms", Message: "must not be negative"}
	}
	if f.TimeoutSeconds < 0 {
		return &rpgtl.ValidationError{Field: "timeout_seconds", Message: "must not be negative"}
	}
	if f.Retries < 0 {
		return &rpgtl.ValidationError{Field: "retries", Message: "must not be negative"}
	}

	switch f.Provider {
	case "", ProviderLingva:
		if len(f.Endpoints) == 0 {
			return &rpgtl.ValidationError{Field: "endpoints", Message: "at least one endpoint is required"}
		}
		for i, ep := range f.Endpoints {
			normalized, err := NormalizeEndpoint(ep)
			if err != nil {
				return &rpgtl.ValidationError{Field: "endpoints", Message: err.Error()}
			}
			f.Endpoints[i] = normalized
		}
	case ProviderOpenAI:
		if f.OpenAI.APIKey == "" {
			return &rpgtl.ValidationError{Field: "openai.api_key", Message: "required (or set " + EnvOpenAIKey + ")"}
		}
	default:
		return &rpgtl.ValidationError{Field: "provider", Message: fmt.Sprintf("unknown provider %q (valid: lingva, openai)", f.Provider)}
	}

	switch f.Cache.Type {
	case "", cache.TypeMemory, cache.TypeNone:
	case cache.TypeRedis:
		if f.Cache.RedisURL == "" {
			return &rpgtl.ValidationError{Field: "cache.redis_url", Message: "required for a redis cache (or set " + EnvRedisURL + ")"}
		}
	case cache.TypeSQLite:
		if f.Cache.SQLitePath == "" {
			return &rpgtl.ValidationError{Field: "cache.sqlite_path", Message: "required for a sqlite cache"}
		}
	default:
		return &rpgtl.ValidationError{Field: "cache.type", Message: fmt.Sprintf("unknown cache type %q", f.Cache.Type)}
	}

	return nil
}

// NormalizeEndpoint checks that ep is an absolute http(s) URL and returns it
// with an ASCII host and no trailing slash.
func NormalizeEndpoint(ep string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ep))
	if err != nil {
		return "", fmt.Errorf("endpoint %q: %w", ep, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("endpoint %q: scheme must be http or https", ep)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("endpoint %q: missing host", ep)
	}

	if net.ParseIP(u.Hostname()) == nil {
		host, err := idna.Lookup.ToASCII(u.Hostname())
		if err != nil {
			return "", fmt.Errorf("endpoint %q: invalid host: %w", ep, err)
		}
		if port := u.Port(); port != "" {
			host = net.JoinHostPort(host, port)
		}
		u.Host = host
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// ---------------------------------------------------------------------------
// Derived settings
// ---------------------------------------------------------------------------

// QueueConfig returns the scheduling parameters.
func (f *File) QueueConfig() rpgtl.QueueConfig {
	cfg := rpgtl.DefaultQueueConfig()
	if f.MaxConcurrent > 0 {
		cfg.MaxConcurrent = f.MaxConcurrent
	}
	if f.MinDispatchIntervalMs != nil {
		cfg.MinInterval = time.Duration(*f.MinDispatchIntervalMs) * time.Millisecond
	}
	return cfg
}

// Timeout returns the per-request timeout.
func (f *File) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// CacheConfig returns the cache backend settings.
func (f *File) CacheConfig() cache.Config {
	return cache.Config{
		Type:       f.Cache.Type,
		TTL:        f.Cache.TTL,
		RedisURL:   f.Cache.RedisURL,
		SQLitePath: f.Cache.SQLitePath,
		KeyPrefix:  f.Cache.KeyPrefix,
	}
}
