package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientLimiter(t *testing.T) {
	l := newClientLimiter(1, 1)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"), "clients have separate buckets")

	clock = clock.Add(time.Second)
	assert.True(t, l.allow("10.0.0.1"), "bucket refills")
}

func TestClientLimiterSweepsIdleClients(t *testing.T) {
	l := newClientLimiter(1, 1)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	l.allow("idle")
	clock = clock.Add(limiterIdleTTL + 2*time.Minute)
	l.allow("active")

	_, ok := l.clients["idle"]
	assert.False(t, ok)
	assert.Len(t, l.clients, 1)
}

func TestClientLimiterDisabled(t *testing.T) {
	l := newClientLimiter(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.allow("x"))
	}
}

func TestClientID(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", clientID(r))

	r.RemoteAddr = "not-an-addr"
	assert.Equal(t, "not-an-addr", clientID(r))
}
