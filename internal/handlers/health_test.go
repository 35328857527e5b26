package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthLive(t *testing.T) {
	h := NewHealthHandler(setupTestDB(t), nil)
	w := httptest.NewRecorder()
	h.Live(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthReady(t *testing.T) {
	d := setupTestDB(t)

	t.Run("all up", func(t *testing.T) {
		h := NewHealthHandler(d, map[string]Pinger{"cache": pingFunc(func(context.Context) error { return nil })})
		w := httptest.NewRecorder()
		h.Ready(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok","cache":"ok"}}`, w.Body.String())
	})

	t.Run("dependency down", func(t *testing.T) {
		h := NewHealthHandler(d, map[string]Pinger{"cache": pingFunc(func(context.Context) error { return errors.New("dial tcp: refused") })})
		w := httptest.NewRecorder()
		h.Ready(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"status":"unavailable","checks":{"database":"ok","cache":"dial tcp: refused"}}`, w.Body.String())
	})
}

func TestHome(t *testing.T) {
	w := httptest.NewRecorder()
	Home(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FestaKit")

	w = httptest.NewRecorder()
	Home(w, getRequest("/", 9))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/materiais", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	Home(w, httptest.NewRequest(http.MethodGet, "/nada", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
