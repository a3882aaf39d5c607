// Package handler provides the Lambda handler that translates one RPG Maker
// data file per invocation.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ZaguanLabs/rpgtl"
)

// Request is the input to the translation function. Document may be the
// data file itself or a JSON string holding it.
type Request struct {
	Document   json.RawMessage `json:"document"`
	SourceLang string          `json:"sourceLang"`
	TargetLang string          `json:"targetLang"`
}

// Response is the output of the translation function.
type Response struct {
	Document   json.RawMessage `json:"document,omitempty"`
	TotalUnits int             `json:"totalUnits"`
	Translated int             `json:"translated"`
	Cached     int             `json:"cached"`
	Failed     int             `json:"failed"`
	Error      string          `json:"error,omitempty"`
}

// Handler keeps the provider, cache and queue alive across invocations of a
// warm container.
type Handler struct {
	provider      rpgtl.Provider
	cache         rpgtl.TranslationCache
	queue         *rpgtl.Queue
	logger        *slog.Logger
	defaultTarget string
}

// Option configures a Handler.
type Option func(*Handler)

// WithCache shares a translation cache between invocations.
func WithCache(c rpgtl.TranslationCache) Option {
	return func(h *Handler) { h.cache = c }
}

// WithQueue sets the queue every invocation schedules on.
func WithQueue(q *rpgtl.Queue) Option {
	return func(h *Handler) { h.queue = q }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithDefaultTarget is used when a request has no targetLang.
func WithDefaultTarget(lang string) Option {
	return func(h *Handler) { h.defaultTarget = lang }
}

// New creates a Handler around p.
func New(p rpgtl.Provider, opts ...Option) *Handler {
	h := &Handler{provider: p}
	for _, opt := range opts {
		opt(h)
	}
	if h.queue == nil {
		h.queue = rpgtl.NewQueue(rpgtl.DefaultQueueConfig())
	}
	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}
	return h
}

// Invoke is the Lambda entry point. Warmup pings return immediately;
// anything else is decoded as a Request.
func (h *Handler) Invoke(ctx context.Context, event json.RawMessage) (any, error) {
	// Warmup detection (MUST be first - before any other processing)
	if IsWarmupEvent(event) {
		return WarmupResponse{Status: "warm"}, nil
	}

	var req Request
	if err := json.Unmarshal(event, &req); err != nil {
		return &Response{Error: fmt.Sprintf("invalid request: %v", err)}, nil
	}
	return h.Handle(ctx, req)
}

// Handle translates req.Document. Validation and document errors are
// reported in the response; only a cancelled context returns an error.
func (h *Handler) Handle(ctx context.Context, req Request) (*Response, error) {
	doc, err := validateRequest(&req, h.defaultTarget)
	if err != nil {
		return &Response{Error: err.Error()}, nil
	}

	opts := []rpgtl.TranslatorOption{
		rpgtl.WithSourceLang(req.SourceLang),
		rpgtl.WithQueue(h.queue),
		rpgtl.WithLogger(h.logger),
	}
	if h.cache != nil {
		opts = append(opts, rpgtl.WithCache(h.cache))
	}
	t := rpgtl.NewTranslator(req.TargetLang, h.provider, opts...)

	out, result, err := t.Process(ctx, doc)
	if err != nil {
		var docErr *rpgtl.DocumentError
		if errors.As(err, &docErr) {
			return &Response{Error: docErr.Error()}, nil
		}
		return nil, err
	}

	h.logger.Info("invocation done",
		"source", req.SourceLang,
		"target", req.TargetLang,
		"units", result.TotalUnits,
		"failed", result.FailedCount)

	return &Response{
		Document:   out,
		TotalUnits: result.TotalUnits,
		Translated: result.TranslatedCount,
		Cached:     result.CachedCount,
		Failed:     result.FailedCount + result.PatchFailures,
	}, nil
}

// validateRequest fills defaults in req and returns the document bytes.
func validateRequest(req *Request, defaultTarget string) ([]byte, error) {
	if req.TargetLang == "" {
		req.TargetLang = defaultTarget
	}
	if strings.TrimSpace(req.TargetLang) == "" {
		return nil, fmt.Errorf("targetLang is required")
	}
	if !rpgtl.IsSupportedLang(req.TargetLang) || rpgtl.NormalizeLang(req.TargetLang) == rpgtl.AutoDetect {
		return nil, fmt.Errorf("targetLang %q is not supported", req.TargetLang)
	}
	if req.SourceLang == "" {
		req.SourceLang = rpgtl.AutoDetect
	}
	if !rpgtl.IsSupportedLang(req.SourceLang) {
		return nil, fmt.Errorf("sourceLang %q is not supported", req.SourceLang)
	}

	doc := bytes.TrimSpace(req.Document)
	if len(doc) == 0 || bytes.Equal(doc, []byte("null")) {
		return nil, fmt.Errorf("document is required")
	}
	if doc[0] == '"' {
		var inner string
		if err := json.Unmarshal(doc, &inner); err != nil {
			return nil, fmt.Errorf("document: %v", err)
		}
		doc = []byte(inner)
	}
	return doc, nil
}
