// Package app assembles a Translator from a validated configuration. It is
// shared by the CLI and the Lambda handler.
package app

import (
	"io"
	"log/slog"
	"time"

	"github.com/ZaguanLabs/rpgtl"
	"github.com/ZaguanLabs/rpgtl/cache"
	"github.com/ZaguanLabs/rpgtl/config"
	"github.com/ZaguanLabs/rpgtl/provider"
)

// App owns the long-lived pieces of one run.
type App struct {
	Translator *rpgtl.Translator
	Provider   rpgtl.Provider
	Cache      cache.TranslationCache // nil when caching is disabled
	Queue      *rpgtl.Queue
}

// Build creates the provider, cache, queue and translator described by cfg.
// cfg must already be validated.
func Build(cfg *config.File, logger *slog.Logger, opts ...rpgtl.TranslatorOption) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	p, err := NewProvider(cfg, logger)
	if err != nil {
		return nil, err
	}

	c, err := cache.New(cfg.CacheConfig())
	if err != nil {
		return nil, err
	}

	q := rpgtl.NewQueue(cfg.QueueConfig())

	base := []rpgtl.TranslatorOption{
		rpgtl.WithSourceLang(cfg.SourceLang),
		rpgtl.WithQueue(q),
		rpgtl.WithLogger(logger),
	}
	if c != nil {
		base = append(base, rpgtl.WithCache(c))
	}

	return &App{
		Translator: rpgtl.NewTranslator(cfg.TargetLang, p, append(base, opts...)...),
		Provider:   p,
		Cache:      c,
		Queue:      q,
	}, nil
}

// NewProvider returns the configured backend, wrapped for retries when
// cfg.Retries is positive.
func NewProvider(cfg *config.File, logger *slog.Logger) (rpgtl.Provider, error) {
	var p rpgtl.Provider
	switch cfg.Provider {
	case "", config.ProviderLingva:
		p = provider.NewLingvaProvider(provider.LingvaConfig{
			Endpoints: cfg.Endpoints,
			Timeout:   cfg.Timeout(),
			Sticky:    cfg.StickyEndpoint,
			Logger:    logger,
		})
	case config.ProviderOpenAI:
		p = provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		})
		if cfg.OpenAI.RequestsPerMinute > 0 {
			p = rpgtl.NewRateLimitedProvider(p, rpgtl.RateLimitConfig{RequestsPerMinute: cfg.OpenAI.RequestsPerMinute})
		}
	default:
		return nil, &rpgtl.ValidationError{Field: "provider", Message: "unknown provider " + cfg.Provider}
	}

	if cfg.Retries > 0 {
		p = rpgtl.NewRetryableProvider(p, rpgtl.RetryConfig{
			MaxRetries: cfg.Retries,
			BaseDelay:  time.Second,
			MaxDelay:   30 * time.Second,
		})
	}
	return p, nil
}

// Close releases the cache connection, if any.
func (a *App) Close() error {
	if closer, ok := a.Cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return &rpgtl.CacheError{Message: "close failed", Cause: err}
		}
	}
	return nil
}
