package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"optionsync/internal/config"
	"optionsync/internal/domain"
	"optionsync/internal/service"
	"optionsync/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPostUUID = "0b7c6c1e-2f7a-4c55-9d1e-4c1f5b0f9a11"

func testConfig() *config.Config {
	return &config.Config{
		APIBaseURL:       "http://127.0.0.1:1",
		Environment:      "test",
		PageSize:         20,
		RequestTimeout:   time.Second,
		FinalizeGuardTTL: time.Hour,
		CardFeeBps:       290,
		SignupPayURL:     "https://pay.example.com/signup",
		ReturnBaseURL:    "https://app.example.com/payment/return",
	}
}

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name        string
		redisURL    string
		expectRedis bool
		guard       interface{}
	}{
		{
			name:        "Container with Redis configured",
			redisURL:    "redis://" + mr.Addr(),
			expectRedis: true,
			guard:       &service.RedisFinalizeGuard{},
		},
		{
			name:        "Container without Redis configured",
			redisURL:    "",
			expectRedis: false,
			guard:       &service.MemoryFinalizeGuard{},
		},
		{
			name:        "Container with invalid Redis URL",
			redisURL:    "invalid://redis-url",
			expectRedis: false, // Redis client initialization fails but container creation succeeds
			guard:       &service.MemoryFinalizeGuard{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.RedisURL = tt.redisURL

			container, err := New(cfg, logger.NewNop())
			require.NoError(t, err)
			require.NotNil(t, container)
			defer container.Close()

			assert.Equal(t, cfg, container.GetConfig())
			assert.NotNil(t, container.GetLogger())
			assert.Equal(t, tt.expectRedis, container.HasRedis())
			assert.Equal(t, tt.expectRedis, container.Hub.Enabled())
			assert.IsType(t, tt.guard, container.Guard)
			assert.NotNil(t, container.Repos.Options)
			assert.NotNil(t, container.Repos.Votes)
		})
	}
}

func TestContainer_SessionConfig(t *testing.T) {
	container, err := New(testConfig(), logger.NewNop())
	require.NoError(t, err)

	sc := container.SessionConfig()

	assert.Equal(t, 20, sc.PageSize)
	assert.Equal(t, int64(290), sc.Payment.FeeBps)
	assert.Equal(t, "https://app.example.com/payment/return", sc.Payment.ReturnBaseURL)
}

func TestContainer_OpenSession(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/v1/posts/{uuid}", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"post_uuid":"` + chi.URLParam(req, "uuid") + `","author_id":"author","option_count":0}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.APIBaseURL = srv.URL
	cfg.RedisURL = "redis://" + mr.Addr()

	container, err := New(cfg, logger.NewNop())
	require.NoError(t, err)
	defer container.Close()

	session, err := container.OpenSession(context.Background(), testPostUUID, domain.Anonymous, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "author", session.Summary().AuthorID)
	assert.Equal(t, 1, container.Hub.Members(testPostUUID))

	found, ok := container.Session(testPostUUID)
	require.True(t, ok)
	assert.Same(t, session, found)

	replacement, err := container.OpenSession(context.Background(), testPostUUID, domain.Anonymous, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, container.Hub.Members(testPostUUID))

	container.CloseSession(testPostUUID)
	replacement.Close()
	_, ok = container.Session(testPostUUID)
	assert.False(t, ok)
	assert.Equal(t, 0, container.Hub.Members(testPostUUID))
}
