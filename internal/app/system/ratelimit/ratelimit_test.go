package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/onboardhub/internal/app/system/auth"
	"github.com/stretchr/testify/assert"
)

func TestLimiter_BurstThenRefill(t *testing.T) {
	l := New(time.Minute, 2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"), "burst exhausted")
	assert.True(t, l.Allow("b"), "keys are independent")

	now = now.Add(time.Minute)
	assert.True(t, l.Allow("a"), "one token refilled")
	assert.False(t, l.Allow("a"))
}

func TestLimiter_SweepsIdleKeys(t *testing.T) {
	l := New(time.Second, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(2 * idleTTL)
	l.Allow("new")

	_, kept := l.buckets["old"]
	assert.False(t, kept)
	assert.Len(t, l.buckets, 1)
}

func TestByUser_Returns429(t *testing.T) {
	l := New(time.Hour, 1)
	h := l.ByUser()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := auth.WithTestUser(httptest.NewRequest("POST", "/api/invitations", nil), &auth.SessionUser{ID: "u1"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Anonymous callers are left to the auth gate.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/invitations", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestClientIP_IgnoresForwardingHeaders(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientIP(r))

	r.Header.Set("X-Real-IP", "192.0.2.7")
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.2")
	assert.Equal(t, "10.0.0.1", ClientIP(r))
}

func TestByIP_SpoofedForwardedForSharesBucket(t *testing.T) {
	l := New(time.Hour, 1)
	h := l.ByIP()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i, xff := range []string{"198.51.100.1", "198.51.100.2"} {
		req := httptest.NewRequest("GET", "/auth/google/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if i == 0 {
			assert.Equal(t, http.StatusNoContent, rec.Code)
		} else {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}
}
