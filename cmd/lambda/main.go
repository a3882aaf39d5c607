// Package main is the entry point for the rpgtl Lambda function.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ZaguanLabs/rpgtl"
	"github.com/ZaguanLabs/rpgtl/cache"
	"github.com/ZaguanLabs/rpgtl/config"
	"github.com/ZaguanLabs/rpgtl/internal/app"
	"github.com/ZaguanLabs/rpgtl/internal/handler"
	"github.com/aws/aws-lambda-go/lambda"
)

// EnvConfigPath points at an rpgtl.yaml bundled with the function.
const EnvConfigPath = "RPGTL_CONFIG"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	h, err := newHandler(os.Getenv, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	lambda.Start(h.Invoke)
}

// newHandler builds the handler from the optional config file and the
// environment. The provider, cache and queue live for the whole container.
func newHandler(getenv func(string) string, logger *slog.Logger) (*handler.Handler, error) {
	path := getenv(EnvConfigPath)
	required := path != ""
	if path == "" {
		path = config.FileName
	}

	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(getenv)
	if err := cfg.ValidateShared(); err != nil {
		return nil, err
	}

	p, err := app.NewProvider(cfg, logger)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(cfg.CacheConfig())
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	opts := []handler.Option{
		handler.WithQueue(rpgtl.NewQueue(cfg.QueueConfig())),
		handler.WithLogger(logger),
		handler.WithDefaultTarget(cfg.TargetLang),
	}
	if c != nil {
		opts = append(opts, handler.WithCache(c))
	}
	return handler.New(p, opts...), nil
}
