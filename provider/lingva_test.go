package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZaguanLabs/rpgtl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lingvaServer is a fake Lingva instance that records what it received.
type lingvaServer struct {
	*httptest.Server
	hits      atomic.Int32
	lastQuery atomic.Value // string
	lastAgent atomic.Value // string
	lastLangs atomic.Value // [2]string
}

func newLingvaServer(t *testing.T, handler func(w http.ResponseWriter, query string)) *lingvaServer {
	t.Helper()
	s := &lingvaServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		parts := strings.Split(r.URL.EscapedPath(), "/")
		// /api/v1/{source}/{target}/{query}
		if len(parts) < 6 {
			http.NotFound(w, r)
			return
		}
		source, _ := url.PathUnescape(parts[3])
		target, _ := url.PathUnescape(parts[4])
		query, err := url.PathUnescape(strings.Join(parts[5:], "/"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.lastQuery.Store(query)
		s.lastAgent.Store(r.Header.Get("User-Agent"))
		s.lastLangs.Store([2]string{source, target})
		handler(w, query)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *lingvaServer) endpoint() string {
	return s.URL + "/api/v1"
}

func replyTranslation(text string) func(http.ResponseWriter, string) {
	return func(w http.ResponseWriter, _ string) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"translation": text})
	}
}

func replyStatus(code int) func(http.ResponseWriter, string) {
	return func(w http.ResponseWriter, _ string) {
		http.Error(w, http.StatusText(code), code)
	}
}

func TestLingva_FailoverToThirdEndpoint(t *testing.T) {
	down := newLingvaServer(t, replyStatus(http.StatusInternalServerError))
	malformed := newLingvaServer(t, func(w http.ResponseWriter, _ string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"info":{}}`))
	})
	good := newLingvaServer(t, replyTranslation(" Bonjour  monde "))

	var logs bytes.Buffer
	p := NewLingvaProvider(LingvaConfig{
		Endpoints: []string{down.endpoint(), malformed.endpoint(), good.endpoint()},
		Logger:    slog.New(slog.NewTextHandler(&logs, nil)),
	})

	got, err := p.Translate(context.Background(), TranslateRequest{Text: "Hello  world", SourceLang: "en", TargetLang: "fr"})
	require.NoError(t, err)

	assert.Equal(t, "Bonjour monde", got)
	assert.Equal(t, int32(1), down.hits.Load())
	assert.Equal(t, int32(1), malformed.hits.Load())
	assert.Equal(t, int32(1), good.hits.Load())
	assert.Equal(t, [2]string{"en", "fr"}, good.lastLangs.Load())
	assert.Equal(t, 2, strings.Count(logs.String(), "lingva endpoint failed"))
}

func TestLingva_EmptyTextFailsBeforeRequest(t *testing.T) {
	srv := newLingvaServer(t, replyTranslation("unused"))
	p := NewLingvaProvider(LingvaConfig{Endpoints: []string{srv.endpoint()}})

	for _, text := range []string{"", "   "} {
		_, err := p.Translate(context.Background(), TranslateRequest{Text: text, TargetLang: "fr"})

		var validationErr *rpgtl.ValidationError
		require.True(t, errors.As(err, &validationErr), "got %v", err)
		assert.False(t, rpgtl.IsRetryable(err))
	}
	assert.Equal(t, int32(0), srv.hits.Load())
}

func TestLingva_MissingTargetFailsBeforeRequest(t *testing.T) {
	srv := newLingvaServer(t, replyTranslation("unused"))
	p := NewLingvaProvider(LingvaConfig{Endpoints: []string{srv.endpoint()}})

	_, err := p.Translate(context.Background(), TranslateRequest{Text: "Hello there."})

	var validationErr *rpgtl.ValidationError
	require.True(t, errors.As(err, &validationErr), "got %v", err)
	assert.Equal(t, "target language", validationErr.Field)
	assert.Equal(t, int32(0), srv.hits.Load())
}

func TestLingva_AllEndpointsFail(t *testing.T) {
	first := newLingvaServer(t, replyStatus(http.StatusNotFound))
	last := newLingvaServer(t, replyStatus(http.StatusTooManyRequests))

	p := NewLingvaProvider(LingvaConfig{Endpoints: []string{first.endpoint(), last.endpoint()}})

	_, err := p.Translate(context.Background(), TranslateRequest{Text: "Hello there.", TargetLang: "de"})

	var translationErr *rpgtl.TranslationError
	require.True(t, errors.As(err, &translationErr), "got %v", err)

	var endpointErr *rpgtl.EndpointError
	require.True(t, errors.As(err, &endpointErr))
	assert.Equal(t, last.endpoint(), endpointErr.Endpoint, "cause is the last failure")
	assert.Equal(t, http.StatusTooManyRequests, endpointErr.StatusCode)
	assert.True(t, rpgtl.IsRetryable(err))
}

func TestLingva_ProtectsControlCodes(t *testing.T) {
	srv := newLingvaServer(t, func(w http.ResponseWriter, query string) {
		translated := strings.NewReplacer("Hello", "Bonjour", "world", "monde").Replace(query)
		replyTranslation(translated)(w, query)
	})
	p := NewLingvaProvider(LingvaConfig{Endpoints: []string{srv.endpoint()}})

	got, err := p.Translate(context.Background(), TranslateRequest{Text: `\C[2]Hello\C[0] world`, TargetLang: "fr"})
	require.NoError(t, err)

	sent := srv.lastQuery.Load().(string)
	assert.NotContains(t, sent, `\C`, "codes must not reach the endpoint")
	assert.Contains(t, sent, "RPGM_CODE_0_")
	assert.Equal(t, `\C[2]Bonjour\C[0]monde`, got)
}

func TestLingva_RequestShape(t *testing.T) {
	srv := newLingvaServer(t, replyTranslation("ok"))
	p := NewLingvaProvider(LingvaConfig{Endpoints: []string{srv.endpoint() + "/"}})

	_, err := p.Translate(context.Background(), TranslateRequest{Text: "50% off / today?", TargetLang: "ja"})
	require.NoError(t, err)

	assert.Equal(t, "50% off / today?", srv.lastQuery.Load())
	assert.Equal(t, [2]string{"auto", "ja"}, srv.lastLangs.Load())
	assert.Equal(t, "rpgtl/"+rpgtl.Version, srv.lastAgent.Load())
}

func TestLingva_HTMLErrorPageTitle(t *testing.T) {
	srv := newLingvaServer(t, func(w http.ResponseWriter, _ string) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("<html><head><title>\n  Just a moment... | Cloudflare\n</title></head><body><p>Checking</p></body></html>"))
	})
	p := NewLingvaProvider(LingvaConfig{Endpoints: []string{srv.endpoint()}})

	_, err := p.Translate(context.Background(), TranslateRequest{Text: "Hello there.", TargetLang: "fr"})

	var endpointErr *rpgtl.EndpointError
	require.True(t, errors.As(err, &endpointErr), "got %v", err)
	assert.Equal(t, "Service Unavailable (Just a moment... | Cloudflare)", endpointErr.Message)
	assert.True(t, endpointErr.Retryable)
}

func TestLingva_JSONErrorBody(t *testing.T) {
	srv := newLingvaServer(t, func(w http.ResponseWriter, _ string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid target language"}`))
	})
	p := NewLingvaProvider(LingvaConfig{Endpoints: []string{srv.endpoint()}})

	_, err := p.Translate(context.Background(), TranslateRequest{Text: "Hello there.", TargetLang: "xx"})

	var endpointErr *rpgtl.EndpointError
	require.True(t, errors.As(err, &endpointErr), "got %v", err)
	assert.Equal(t, "Bad Request (Invalid target language)", endpointErr.Message)
	assert.False(t, rpgtl.IsRetryable(err))
}

func TestLingva_StickyEndpoint(t *testing.T) {
	down := newLingvaServer(t, replyStatus(http.StatusBadGateway))
	up := newLingvaServer(t, replyTranslation("Hallo"))

	sticky := NewLingvaProvider(LingvaConfig{
		Endpoints: []string{down.endpoint(), up.endpoint()},
		Sticky:    true,
	})
	for i := 0; i < 3; i++ {
		_, err := sticky.Translate(context.Background(), TranslateRequest{Text: "Hello there.", TargetLang: "de"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), down.hits.Load(), "later calls start at the endpoint that answered")
	assert.Equal(t, int32(3), up.hits.Load())

	plain := NewLingvaProvider(LingvaConfig{Endpoints: []string{down.endpoint(), up.endpoint()}})
	for i := 0; i < 2; i++ {
		_, err := plain.Translate(context.Background(), TranslateRequest{Text: "Hello there.", TargetLang: "de"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), down.hits.Load(), "without sticky every call starts at the first endpoint")
}

func TestLingva_TimeoutFailsOver(t *testing.T) {
	slow := newLingvaServer(t, func(w http.ResponseWriter, _ string) {
		time.Sleep(300 * time.Millisecond)
		replyTranslation("too late")(w, "")
	})
	fast := newLingvaServer(t, replyTranslation("Hola"))

	p := NewLingvaProvider(LingvaConfig{
		Endpoints: []string{slow.endpoint(), fast.endpoint()},
		Timeout:   50 * time.Millisecond,
	})

	got, err := p.Translate(context.Background(), TranslateRequest{Text: "Hello there.", TargetLang: "es"})
	require.NoError(t, err)
	assert.Equal(t, "Hola", got)
}

func TestLingva_ContextCancelled(t *testing.T) {
	srv := newLingvaServer(t, replyTranslation("unused"))
	p := NewLingvaProvider(LingvaConfig{Endpoints: []string{srv.endpoint()}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Translate(ctx, TranslateRequest{Text: "Hello there.", TargetLang: "es"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), srv.hits.Load())
}

func TestLingva_DefaultEndpoints(t *testing.T) {
	p := NewLingvaProvider(LingvaConfig{})

	assert.Equal(t, rpgtl.DefaultEndpoints, p.Endpoints())
}
