package ratelimit

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(cfg *Config) (*Limiter, *time.Time) {
	cfg.CleanupInterval = 0
	l := NewLimiter(cfg)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_UploadBurstAndRefill(t *testing.T) {
	l, now := newTestLimiter(DefaultConfig(6))
	defer l.Stop()

	allowed, info := l.Allow("10.0.0.1", "/upload", http.MethodPost)
	require.True(t, allowed)
	assert.Equal(t, 6, info.Limit)
	assert.Equal(t, 0, info.Remaining)

	allowed, info = l.Allow("10.0.0.1", "/upload", http.MethodPost)
	require.False(t, allowed)
	assert.Equal(t, 10*time.Second, info.RetryAfter)

	*now = now.Add(10 * time.Second)
	allowed, _ = l.Allow("10.0.0.1", "/upload", http.MethodPost)
	assert.True(t, allowed)
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(DefaultConfig(6))
	defer l.Stop()

	allowed, _ := l.Allow("10.0.0.1", "/upload", http.MethodPost)
	require.True(t, allowed)
	allowed, _ = l.Allow("10.0.0.2", "/upload", http.MethodPost)
	assert.True(t, allowed)
	assert.Equal(t, 2, l.Len())
}

func TestLimiter_UnlimitedRoutes(t *testing.T) {
	l, _ := newTestLimiter(DefaultConfig(1))
	defer l.Stop()

	for i := 0; i < 20; i++ {
		allowed, _ := l.Allow("10.0.0.1", "/status", http.MethodGet)
		require.True(t, allowed)
		allowed, _ = l.Allow("10.0.0.1", "/download/results_1.csv", http.MethodGet)
		require.True(t, allowed)
	}
	assert.Equal(t, 0, l.Len())
}

func TestLimiter_DisabledAndWhitelist(t *testing.T) {
	disabled, _ := newTestLimiter(DefaultConfig(0))
	defer disabled.Stop()
	for i := 0; i < 5; i++ {
		allowed, _ := disabled.Allow("10.0.0.1", "/upload", http.MethodPost)
		assert.True(t, allowed)
	}

	cfg := DefaultConfig(1)
	cfg.Whitelist["127.0.0.1"] = true
	l, _ := newTestLimiter(cfg)
	defer l.Stop()
	for i := 0; i < 5; i++ {
		allowed, _ := l.Allow("127.0.0.1", "/upload", http.MethodPost)
		assert.True(t, allowed)
	}
}

func TestLimiter_EvictIdle(t *testing.T) {
	l, now := newTestLimiter(DefaultConfig(6))
	defer l.Stop()

	l.Allow("10.0.0.1", "/upload", http.MethodPost)
	*now = now.Add(30 * time.Minute)
	l.Allow("10.0.0.2", "/upload", http.MethodPost)

	*now = now.Add(45 * time.Minute)
	l.evictIdle()
	assert.Equal(t, 1, l.Len())
}

func TestLimiter_StopTwice(t *testing.T) {
	l := NewLimiter(DefaultConfig(6))
	l.Stop()
	assert.NotPanics(t, l.Stop)
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/upload", Method: http.MethodPost, Limit: 1, Window: time.Minute},
		{Path: "/download/", Method: http.MethodGet, Limit: 5, Window: time.Minute},
	}

	tests := []struct {
		name   string
		path   string
		method string
		want   int // -1 for nil
	}{
		{"exact", "/upload", http.MethodPost, 1},
		{"prefix", "/download/results_1.csv", http.MethodGet, 5},
		{"method mismatch", "/upload", http.MethodGet, -1},
		{"health unlimited", "/health", http.MethodGet, 0},
		{"status unlimited", "/status", http.MethodGet, 0},
		{"unknown", "/nope", http.MethodGet, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.want < 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Limit)
		})
	}
}
