package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelmarket/x402-gateway/internal/pkg/x402"
)

func TestForwardStripsRequestDenylist(t *testing.T) {
	var seen http.Header
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer origin.Close()

	inbound := http.Header{}
	inbound.Set(x402.HeaderPaymentID, "pay_secret")
	inbound.Set("Cookie", "session=abc")
	inbound.Set("X-Forwarded-For", "1.2.3.4")
	inbound.Set("Accept-Encoding", "gzip")
	inbound.Set("Connection", "keep-alive")
	inbound.Set("Authorization", "Bearer origin-key")
	inbound.Set("X-Custom", "kept")

	result, err := NewDispatcher().Forward(context.Background(), "GET", origin.URL+"/data", inbound, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)

	assert.Empty(t, seen.Get(x402.HeaderPaymentID))
	assert.Empty(t, seen.Get("Cookie"))
	assert.Empty(t, seen.Get("X-Forwarded-For"))
	assert.Empty(t, seen.Get("Connection"))
	assert.Equal(t, "Bearer origin-key", seen.Get("Authorization"))
	assert.Equal(t, "kept", seen.Get("X-Custom"))
}

func TestForwardSendsJSONBodyForWriteMethods(t *testing.T) {
	var gotBody map[string]any
	var gotContentType string
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer origin.Close()

	body := []byte(`{"city":"Berlin"}`)
	result, err := NewDispatcher().Forward(context.Background(), "POST", origin.URL, http.Header{}, body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "Berlin", gotBody["city"])
}

func TestForwardDropsBodyForGet(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, int64(0), r.ContentLength)
		w.WriteHeader(http.StatusOK)
	}))
	defer origin.Close()

	_, err := NewDispatcher().Forward(context.Background(), "GET", origin.URL, http.Header{}, []byte(`{"x":1}`))
	require.NoError(t, err)
}

func TestForwardSanitizesResponseHeaders(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "https://origin.example")
		w.Header().Set("Access-Control-Allow-Headers", "X-Anything")
		w.Header().Set("X-Origin-Header", "kept")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer origin.Close()

	result, err := NewDispatcher().Forward(context.Background(), "GET", origin.URL, http.Header{}, nil)
	require.NoError(t, err)

	// Origin CORS headers and encoding headers never survive the relay.
	assert.Empty(t, result.Header.Get("Access-Control-Allow-Origin"))
	assert.Empty(t, result.Header.Get("Access-Control-Allow-Headers"))
	assert.Empty(t, result.Header.Get("Content-Encoding"))
	assert.Empty(t, result.Header.Get("Transfer-Encoding"))
	assert.Equal(t, "kept", result.Header.Get("X-Origin-Header"))
}

func TestForwardRelaysStatusAndBodyVerbatim(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`i am a teapot`))
	}))
	defer origin.Close()

	result, err := NewDispatcher().Forward(context.Background(), "GET", origin.URL, http.Header{}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, result.StatusCode)
	assert.Equal(t, "i am a teapot", string(result.Body))
}

func TestForwardUnreachableOriginReturnsError(t *testing.T) {
	_, err := NewDispatcher().Forward(context.Background(), "GET", "http://127.0.0.1:1/nothing", http.Header{}, nil)
	require.Error(t, err)
}

func TestSanitizeResponseHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Connection", "close")
	h.Set("Keep-Alive", "timeout=5")
	h.Set("Content-Encoding", "gzip")
	h.Set("Content-Length", "42")
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Set("Content-Type", "application/json")

	out := SanitizeResponseHeaders(h)
	assert.Equal(t, "application/json", out.Get("Content-Type"))
	assert.Len(t, out, 1)
}
