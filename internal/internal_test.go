package internal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContextWithoutCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	ctx = SetIPToContext(ctx, "10.0.0.1")

	detached := ContextWithoutCancel(ctx)
	<-ctx.Done()

	assert.Nil(t, detached.Done())
	assert.NoError(t, detached.Err())
	_, ok := detached.Deadline()
	assert.False(t, ok)
	assert.Equal(t, "10.0.0.1", GetIPFromContext(detached))
}

func TestWrapWithIP(t *testing.T) {
	var seen string
	h := WrapAll(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetIPFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("forwarded", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "192.168.1.10, 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "192.168.1.10", seen)
	})

	t.Run("remote address", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "172.16.0.5:51234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "172.16.0.5", seen)
	})
}

func TestCaptureError(t *testing.T) {
	assert.NotPanics(t, func() {
		CaptureError(context.Background(), nil)
		CaptureError(context.Background(), errors.New("boom"))
	})
}
