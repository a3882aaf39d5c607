package rpgtl

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapFixture is a trimmed RPG Maker map with dialogue, a choice list, a
// plugin command and identifier-like parameters.
const mapFixture = `{"displayName":"Harbor","events":[null,{"id":1,"name":"EV001","pages":[{"list":[` +
	`{"code":101,"indent":0,"parameters":["Actor1",0,0,2]},` +
	`{"code":401,"indent":0,"parameters":["Hello, traveler!"]},` +
	`{"code":401,"indent":0,"parameters":["Welcome to our town."]},` +
	`{"code":356,"indent":0,"parameters":["ShowMessage Hello there friend"]},` +
	`{"code":102,"indent":0,"parameters":[["Yes, please.","No, thanks."],1,0,2,0]},` +
	`{"code":401,"indent":0,"parameters":["Hello, traveler!"]},` +
	`{"code":0,"indent":0,"parameters":[]}]}]}],"width":17.50}`

// mockProvider is a simple mock for testing
type mockProvider struct {
	mu           sync.Mutex
	translations map[string]string
	failures     map[string]bool
	callCount    int
	lastRequest  TranslateRequest
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		translations: map[string]string{
			"Hello, traveler!":     "Hola, viajero!",
			"Welcome to our town.": "Bienvenido a nuestro pueblo.",
			"Yes, please.":         "Si, por favor.",
			"No, thanks.":          "No, gracias.",
		},
		failures: map[string]bool{},
	}
}

func (m *mockProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	m.lastRequest = req

	if m.failures[req.Text] {
		return "", &TranslationError{
			Message: "all endpoints failed",
			Cause:   &EndpointError{Endpoint: "https://mock", StatusCode: 503, Retryable: true},
		}
	}
	if translation, ok := m.translations[req.Text]; ok {
		return translation, nil
	}
	return "[" + req.Text + "]", nil
}

func (m *mockProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// mockCache is a simple mock cache for testing
type mockCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string]string)}
}

func (c *mockCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.data[key]
	return val, ok
}

func (c *mockCache) Set(key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func fastQueue() *Queue {
	return NewQueue(QueueConfig{MaxConcurrent: 5})
}

func TestTranslator_BasicTranslation(t *testing.T) {
	provider := newMockProvider()
	translator := NewTranslator("es", provider, WithQueue(fastQueue()))

	out, result, err := translator.Process(context.Background(), []byte(mapFixture))
	require.NoError(t, err)

	want := strings.NewReplacer(
		"Hello, traveler!", "Hola, viajero!",
		"Welcome to our town.", "Bienvenido a nuestro pueblo.",
		"Yes, please.", "Si, por favor.",
		"No, thanks.", "No, gracias.",
	).Replace(mapFixture)
	assert.Equal(t, want, string(out), "only translated leaves may change")

	assert.Equal(t, 5, result.TotalUnits)
	assert.Equal(t, 5, result.TranslatedCount)
	assert.Equal(t, 0, result.CachedCount)
	assert.True(t, result.Complete())

	// Repeated dialogue is requested once
	assert.Equal(t, 4, provider.calls())
	assert.Equal(t, AutoDetect, provider.lastRequest.SourceLang)
	assert.Equal(t, "es", provider.lastRequest.TargetLang)
}

func TestTranslator_PluginCommandUntouched(t *testing.T) {
	provider := newMockProvider()
	translator := NewTranslator("es", provider, WithQueue(fastQueue()))

	out, _, err := translator.Process(context.Background(), []byte(mapFixture))
	require.NoError(t, err)

	assert.Contains(t, string(out), `"ShowMessage Hello there friend"`)
	assert.Contains(t, string(out), `"Actor1"`)
	assert.Contains(t, string(out), `"width":17.50`)
}

func TestTranslator_CacheHit(t *testing.T) {
	provider := newMockProvider()
	cache := newMockCache()
	translator := NewTranslator("es", provider,
		WithCache(cache),
		WithQueue(fastQueue()),
	)

	// First call - should translate
	_, result1, err := translator.Process(context.Background(), []byte(mapFixture))
	require.NoError(t, err)
	assert.Equal(t, 5, result1.TranslatedCount)
	assert.Equal(t, 0, result1.CachedCount)

	// Second call - should use cache
	out, result2, err := translator.Process(context.Background(), []byte(mapFixture))
	require.NoError(t, err)
	assert.Equal(t, 0, result2.TranslatedCount)
	assert.Equal(t, 5, result2.CachedCount)
	assert.Contains(t, string(out), "Hola, viajero!")

	// Provider should only be called for the first document
	assert.Equal(t, 4, provider.calls())
}

func TestTranslator_SourceEqualsTarget(t *testing.T) {
	provider := newMockProvider()
	translator := NewTranslator("en_US", provider,
		WithSourceLang("en"),
		WithQueue(fastQueue()),
	)

	out, result, err := translator.Process(context.Background(), []byte(mapFixture))
	require.NoError(t, err)

	assert.Equal(t, mapFixture, string(out))
	assert.Equal(t, 0, result.TranslatedCount)
	assert.Equal(t, 0, provider.calls())
}

func TestTranslator_FailedUnitKeepsOriginal(t *testing.T) {
	provider := newMockProvider()
	provider.failures["No, thanks."] = true

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	translator := NewTranslator("es", provider,
		WithQueue(fastQueue()),
		WithLogger(logger),
	)

	out, result, err := translator.Process(context.Background(), []byte(mapFixture))
	require.NoError(t, err)

	assert.Contains(t, string(out), `"No, thanks."`)
	assert.Contains(t, string(out), "Si, por favor.")
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, 4, result.TranslatedCount)
	assert.False(t, result.Complete())

	require.Len(t, result.Failures, 1)
	failure := result.Failures[0]
	assert.Equal(t, "No, thanks.", failure.Unit.Text)
	assert.Equal(t, "parameters[1]", failure.Unit.FieldName)

	var translationErr *TranslationError
	assert.True(t, errors.As(failure.Err, &translationErr))
	assert.Contains(t, logs.String(), "unit left untranslated")
}

func TestTranslator_Progress(t *testing.T) {
	var mu sync.Mutex
	var last [2]int
	calls := 0
	translator := NewTranslator("es", newMockProvider(),
		WithQueue(fastQueue()),
		WithProgress(func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			last = [2]int{done, total}
		}),
	)

	_, _, err := translator.Process(context.Background(), []byte(mapFixture))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [2]int{5, 5}, last)
	assert.Equal(t, 5, calls, "one report for the cache pass and one per unique text")
}

func TestTranslator_EmptyDocument(t *testing.T) {
	provider := newMockProvider()
	translator := NewTranslator("es", provider, WithQueue(fastQueue()))

	out, result, err := translator.Process(context.Background(), []byte(`{"id":3,"list":[1,2,null]}`))
	require.NoError(t, err)

	assert.Equal(t, `{"id":3,"list":[1,2,null]}`, string(out))
	assert.Equal(t, 0, result.TotalUnits)
	assert.Equal(t, 0, provider.calls())
}

func TestTranslator_InvalidDocument(t *testing.T) {
	translator := NewTranslator("es", newMockProvider(), WithQueue(fastQueue()))

	_, _, err := translator.Process(context.Background(), []byte(`{"list": [`))

	var docErr *DocumentError
	assert.True(t, errors.As(err, &docErr), "got %v", err)
}

func TestTranslator_CancelledContext(t *testing.T) {
	provider := newMockProvider()
	translator := NewTranslator("es", provider, WithQueue(fastQueue()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := translator.Process(ctx, []byte(mapFixture))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, provider.calls())
}

func TestTranslator_TranslateTextValidation(t *testing.T) {
	provider := newMockProvider()
	translator := NewTranslator("es", provider)

	_, err := translator.TranslateText(context.Background(), "   ")

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "text", validationErr.Field)
	assert.Equal(t, 0, provider.calls())

	_, err = NewTranslator("", provider).TranslateText(context.Background(), "Hello, traveler!")
	assert.True(t, errors.As(err, &validationErr))
	assert.Equal(t, 0, provider.calls())
}

func TestTranslator_TranslateTextCaches(t *testing.T) {
	provider := newMockProvider()
	cache := newMockCache()
	translator := NewTranslator("es", provider, WithCache(cache))

	for i := 0; i < 3; i++ {
		got, err := translator.TranslateText(context.Background(), "Hello, traveler!")
		require.NoError(t, err)
		assert.Equal(t, "Hola, viajero!", got)
	}

	assert.Equal(t, 1, provider.calls())
	cached, ok := cache.Get(CacheKey(HashText("Hello, traveler!"), AutoDetect, "es"))
	assert.True(t, ok)
	assert.Equal(t, "Hola, viajero!", cached)
}

func TestTranslator_Options(t *testing.T) {
	q := fastQueue()
	translator := NewTranslator("ja", newMockProvider(),
		WithSourceLang("en"),
		WithQueue(q),
	)

	assert.Equal(t, "ja", translator.TargetLang())
	assert.Equal(t, "en", translator.SourceLang())
	assert.Same(t, q, translator.Queue())
	assert.False(t, translator.IsRTL())
	assert.True(t, NewTranslator("ar", nil).IsRTL())

	// Defaults
	defaults := NewTranslator("ja", nil)
	assert.Equal(t, AutoDetect, defaults.SourceLang())
	assert.Equal(t, DefaultQueueConfig(), defaults.Queue().Config())
}

func TestTranslator_IsSourceLang(t *testing.T) {
	tests := []struct {
		source, target string
		expected       bool
	}{
		{"en", "en_US", true},
		{"en", "es_ES", false},
		{"auto", "en", false},
	}

	for _, tt := range tests {
		translator := NewTranslator(tt.target, nil, WithSourceLang(tt.source))
		assert.Equal(t, tt.expected, translator.IsSourceLang(), "%s -> %s", tt.source, tt.target)
	}
}
