package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/rpgtl"
)

// maxErrorBody caps how much of a failed response is read for diagnostics.
const maxErrorBody = 64 << 10

// LingvaProvider implements Provider against one or more Lingva Translate
// instances, falling over to the next endpoint when one fails.
type LingvaProvider struct {
	endpoints []string
	client    *http.Client
	timeout   time.Duration
	sticky    bool
	logger    *slog.Logger
	start     atomic.Int64 // First endpoint tried when sticky
}

// LingvaConfig holds configuration for the Lingva provider.
type LingvaConfig struct {
	Endpoints  []string      // Base URLs such as https://lingva.ml/api/v1 (default: rpgtl.DefaultEndpoints)
	Timeout    time.Duration // Per-request timeout (default: 15s)
	HTTPClient *http.Client  // Optional custom client
	Sticky     bool          // Start later calls at the last endpoint that answered
	Logger     *slog.Logger  // Endpoint failures are logged at warn (default: discard)
}

// lingvaResponse is the success payload of GET /{source}/{target}/{query}.
type lingvaResponse struct {
	Translation string `json:"translation"`
}

// NewLingvaProvider creates a new Lingva provider.
func NewLingvaProvider(cfg LingvaConfig) *LingvaProvider {
	endpoints := cfg.Endpoints
	if len(endpoints) == 0 {
		endpoints = rpgtl.DefaultEndpoints
	}
	trimmed := make([]string, len(endpoints))
	for i, ep := range endpoints {
		trimmed[i] = strings.TrimRight(ep, "/")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &LingvaProvider{
		endpoints: trimmed,
		client:    client,
		timeout:   timeout,
		sticky:    cfg.Sticky,
		logger:    logger,
	}
}

// Endpoints returns the configured endpoint list in order.
func (p *LingvaProvider) Endpoints() []string {
	return append([]string(nil), p.endpoints...)
}

// Translate protects the control codes in req.Text, asks each endpoint in
// turn, and restores the codes in the first successful answer.
func (p *LingvaProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", &rpgtl.ValidationError{Field: "text", Message: "must be a non-empty string"}
	}
	if strings.TrimSpace(req.TargetLang) == "" {
		return "", &rpgtl.ValidationError{Field: "target language", Message: "must be specified"}
	}

	source := req.SourceLang
	if source == "" {
		source = rpgtl.AutoDetect
	}
	protected := rpgtl.Protect(req.Text)

	first := 0
	if p.sticky {
		first = int(p.start.Load())
	}

	var lastErr error
	for i := range p.endpoints {
		idx := (first + i) % len(p.endpoints)
		endpoint := p.endpoints[idx]

		if err := ctx.Err(); err != nil {
			return "", err
		}

		translated, err := p.fetch(ctx, endpoint, source, req.TargetLang, protected.Body)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			p.logger.Warn("lingva endpoint failed", "endpoint", endpoint, "error", err)
			lastErr = err
			continue
		}

		if p.sticky {
			p.start.Store(int64(idx))
		}

		out := strings.TrimSpace(translated)
		out = rpgtl.Restore(out, protected.Codes)
		return rpgtl.CollapseSpaces(out), nil
	}

	return "", &rpgtl.TranslationError{
		Message: "no Lingva endpoint could translate the text",
		Cause:   lastErr,
	}
}

// fetch performs one request against one endpoint.
func (p *LingvaProvider) fetch(ctx context.Context, endpoint, source, target, body string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	apiURL := endpoint + "/" + url.PathEscape(source) + "/" + url.PathEscape(target) + "/" + url.PathEscape(body)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", &rpgtl.EndpointError{Endpoint: endpoint, Message: "invalid request", Cause: err}
	}
	httpReq.Header.Set("User-Agent", rpgtl.UserAgent())
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", &rpgtl.EndpointError{Endpoint: endpoint, Message: "request failed", Cause: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &rpgtl.EndpointError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    describeFailure(resp),
			Retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	var payload lingvaResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &rpgtl.EndpointError{Endpoint: endpoint, Message: "invalid response format", Cause: err}
	}
	if strings.TrimSpace(payload.Translation) == "" {
		return "", &rpgtl.EndpointError{Endpoint: endpoint, Message: "invalid response format", Cause: errMissingTranslation}
	}
	return payload.Translation, nil
}

var errMissingTranslation = errors.New("missing translation data")

// describeFailure summarises a non-2xx response. HTML error pages are
// reduced to their title.
func describeFailure(resp *http.Response) string {
	status := http.StatusText(resp.StatusCode)
	if status == "" {
		status = "unknown status"
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return status
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "html") {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
		if err == nil {
			if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
				return fmt.Sprintf("%s (%s)", status, rpgtl.CollapseSpaces(title))
			}
		}
		return status
	}

	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Sprintf("%s (%s)", status, apiErr.Error)
	}
	return status
}

// Verify LingvaProvider implements Provider
var _ Provider = (*LingvaProvider)(nil)
