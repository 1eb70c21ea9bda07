package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
)

func newTestTelegram(t *testing.T, baseURL, prefix string) *Telegram {
	t.Helper()
	tg, err := NewTelegram("123:secret", "-1001", prefix)
	require.NoError(t, err)
	tg.baseURL = baseURL
	return tg
}

func TestNewTelegram_MissingConfig(t *testing.T) {
	_, err := NewTelegram("", "chat", "")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)

	_, err = NewTelegram("token", "", "")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestTelegram_Send(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bot123:secret/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	err := newTestTelegram(t, server.URL, "").Send(context.Background(), "Resume updated")

	require.NoError(t, err)
	assert.Equal(t, "-1001", got["chat_id"])
	assert.Equal(t, "Resume updated", got["text"])
}

func TestTelegram_SendWithPrefix(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	err := newTestTelegram(t, server.URL, "prod").Send(context.Background(), "Tokens updated")

	require.NoError(t, err)
	assert.Equal(t, "[prod] Tokens updated", got["text"])
}

func TestTelegram_SendServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer server.Close()

	err := newTestTelegram(t, server.URL, "").Send(context.Background(), "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegram_SendTransportErrorHidesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := server.URL
	server.Close()

	err := newTestTelegram(t, baseURL, "").Send(context.Background(), "hello")

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
}

func TestTelegram_SendRespectsContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := newTestTelegram(t, server.URL, "").Send(ctx, "hello")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
