package rpgtl

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/ZaguanLabs/rpgtl/document"
	"golang.org/x/sync/singleflight"
)

// Provider is the interface for translation backends. Implementations
// return a *ValidationError for bad input and a *TranslationError when the
// backend could not produce a translation.
type Provider interface {
	Translate(ctx context.Context, req TranslateRequest) (string, error)
}

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// ProgressFunc is called after each scheduled text settles, with the number
// of units handled so far and the total for the document.
type ProgressFunc func(done, total int)

// Translator is the main translation engine.
type Translator struct {
	targetLang string
	sourceLang string
	provider   Provider
	cache      TranslationCache
	queue      *Queue
	logger     *slog.Logger
	progress   ProgressFunc
	flight     singleflight.Group
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithSourceLang sets the source language. Defaults to "auto".
func WithSourceLang(lang string) TranslatorOption {
	return func(t *Translator) {
		t.sourceLang = lang
	}
}

// WithCache sets the translation cache.
func WithCache(cache TranslationCache) TranslatorOption {
	return func(t *Translator) {
		t.cache = cache
	}
}

// WithQueue sets the scheduling queue. Translators sharing a queue share
// its concurrency and spacing limits.
func WithQueue(q *Queue) TranslatorOption {
	return func(t *Translator) {
		t.queue = q
	}
}

// WithLogger sets the logger. Defaults to discarding everything.
func WithLogger(logger *slog.Logger) TranslatorOption {
	return func(t *Translator) {
		t.logger = logger
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) TranslatorOption {
	return func(t *Translator) {
		t.progress = fn
	}
}

// NewTranslator creates a new Translator with the given target language and provider.
func NewTranslator(targetLang string, provider Provider, opts ...TranslatorOption) *Translator {
	t := &Translator{
		targetLang: targetLang,
		sourceLang: AutoDetect,
		provider:   provider,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.queue == nil {
		t.queue = NewQueue(DefaultQueueConfig())
	}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}

	return t
}

// TranslateText translates one string, consulting the cache first.
// Concurrent calls for the same text and language pair share one request.
func (t *Translator) TranslateText(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &ValidationError{Field: "text", Message: "must not be empty"}
	}
	if strings.TrimSpace(t.targetLang) == "" {
		return "", &ValidationError{Field: "target language", Message: "must not be empty"}
	}

	key := CacheKey(HashText(text), t.sourceLang, t.targetLang)
	if t.cache != nil {
		if cached, ok := t.cache.Get(key); ok {
			return cached, nil
		}
	}

	v, err, shared := t.flight.Do(key, func() (any, error) {
		translated, err := t.provider.Translate(ctx, TranslateRequest{
			Text:       text,
			SourceLang: t.sourceLang,
			TargetLang: t.targetLang,
		})
		if err != nil {
			return "", err
		}
		if t.cache != nil {
			if err := t.cache.Set(key, translated); err != nil {
				t.logger.Warn("cache store failed", "error", err)
			}
		}
		return translated, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		t.logger.Debug("coalesced duplicate request", "text", text)
	}
	return v.(string), nil
}

// TranslateDocument translates every extracted string of root in place.
// Units that cannot be translated or written back keep their original
// text and are reported in the result. An error is returned only when ctx
// is done before any work is scheduled.
func (t *Translator) TranslateDocument(ctx context.Context, root any) (*ProcessedDocument, error) {
	units := Extract(root)
	result := &ProcessedDocument{TotalUnits: len(units)}

	if len(units) == 0 || t.IsSourceLang() {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cached, misses := ParallelCacheLookup(t.cache, units, t.sourceLang, t.targetLang)

	byHash := make(map[string][]TextUnit)
	for _, unit := range units {
		byHash[unit.Hash()] = append(byHash[unit.Hash()], unit)
	}

	// mu serializes every write to root and result
	var mu sync.Mutex
	done := 0
	for _, unit := range units {
		text, ok := cached[unit.Hash()]
		if !ok {
			continue
		}
		if t.patch(root, unit, text, result) {
			result.CachedCount++
		}
		done++
	}
	t.report(done, len(units))

	batch := t.queue.Schedule(ctx, misses, func(ctx context.Context, unit TextUnit) (string, error) {
		return t.TranslateText(ctx, unit.Text)
	}, func(r Result) {
		mu.Lock()
		defer mu.Unlock()

		for _, unit := range byHash[r.Unit.Hash()] {
			if r.Err != nil {
				result.FailedCount++
				result.Failures = append(result.Failures, UnitFailure{Unit: unit, Err: r.Err})
				t.logger.Warn("unit left untranslated",
					"path", unit.Path.String(),
					"field", unit.FieldName,
					"error", r.Err)
			} else if t.patch(root, unit, r.Text, result) {
				result.TranslatedCount++
				t.logger.Debug("unit translated", "path", unit.Path.String())
			}
			done++
		}
		t.report(done, len(units))
	})

	// In-flight work sees ctx, so the batch drains promptly on cancellation.
	<-batch.Done()

	t.logger.Info("document translated",
		"units", result.TotalUnits,
		"translated", result.TranslatedCount,
		"cached", result.CachedCount,
		"failed", result.FailedCount,
		"patch_failures", result.PatchFailures)

	return result, nil
}

// Process parses a JSON document, translates it and returns the compact
// re-encoded document.
func (t *Translator) Process(ctx context.Context, data []byte) ([]byte, *ProcessedDocument, error) {
	root, err := document.Parse(data)
	if err != nil {
		return nil, nil, &DocumentError{Message: "parse failed", Cause: err}
	}

	result, err := t.TranslateDocument(ctx, root)
	if err != nil {
		return nil, nil, err
	}

	out, err := document.Marshal(root)
	if err != nil {
		return nil, nil, &DocumentError{Message: "encode failed", Cause: err}
	}
	return out, result, nil
}

// patch writes text at unit's path, recording a PatchError on failure.
func (t *Translator) patch(root any, unit TextUnit, text string, result *ProcessedDocument) bool {
	if SetText(root, unit.Path, text) {
		return true
	}
	err := &PatchError{Path: unit.Path}
	result.PatchFailures++
	result.Failures = append(result.Failures, UnitFailure{Unit: unit, Err: err})
	t.logger.Warn("translation not written back", "path", unit.Path.String(), "error", err)
	return false
}

func (t *Translator) report(done, total int) {
	if t.progress != nil {
		t.progress(done, total)
	}
}

// TargetLang returns the target language.
func (t *Translator) TargetLang() string {
	return t.targetLang
}

// SourceLang returns the source language.
func (t *Translator) SourceLang() string {
	return t.sourceLang
}

// Queue returns the scheduling queue.
func (t *Translator) Queue() *Queue {
	return t.queue
}

// IsSourceLang checks if the target language matches the source language.
// When true, translation can be bypassed.
func (t *Translator) IsSourceLang() bool {
	return sameLanguage(t.sourceLang, t.targetLang)
}

// IsRTL returns true if the target language uses right-to-left text direction.
func (t *Translator) IsRTL() bool {
	return IsRTL(t.targetLang)
}
