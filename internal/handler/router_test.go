package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitagpt/gitagpt/internal/auth"
	middlewarePkg "github.com/gitagpt/gitagpt/internal/middleware"
	"github.com/gitagpt/gitagpt/internal/model/verse"
	chatService "github.com/gitagpt/gitagpt/internal/service/chat"
	emotionService "github.com/gitagpt/gitagpt/internal/service/emotion"
	"github.com/gitagpt/gitagpt/internal/service/guidance"
	verseService "github.com/gitagpt/gitagpt/internal/service/verse"
)

func newTestRouter(t *testing.T, limiter *middlewarePkg.RateLimiter) http.Handler {
	t.Helper()
	emotions, err := emotionService.NewService(context.Background(), nil, emotionService.Config{}, nil)
	require.NoError(t, err)

	verses := verse.NewMemoryStore(verse.Seed())
	store := chatService.NewMemoryStore()
	pipeline := guidance.NewService(emotions, verseService.NewRetriever(verses), nil, store, guidance.Config{}, nil)

	return NewRouter(Deps{
		Pipeline: pipeline,
		Store:    store,
		Verses:   verses,
		Verifier: auth.NewVerifier(map[string]string{"tok": "alice"}),
		Limiter:  limiter,
	})
}

func TestRouterMountsUnderPrefix(t *testing.T) {
	r := newTestRouter(t, nil)

	cases := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/api/v1/chat/health", "", http.StatusOK},
		{http.MethodGet, "/api/v1/verses", "", http.StatusOK},
		{http.MethodGet, "/api/v1/conversations/history", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/conversations/history", "tok", http.StatusOK},
		{http.MethodGet, "/api/v1/verses/random", "", http.StatusOK},
		{http.MethodPost, "/api/v1/verses/search", "", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/users/profile", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/users/profile", "tok", http.StatusOK},
		{http.MethodGet, "/api/v1/analytics/spiritual-progress?timeframe=week", "tok", http.StatusOK},
		{http.MethodPost, "/api/v1/conversations/messages", "tok", http.StatusBadRequest},
		{http.MethodGet, "/chat/health", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		assert.Equal(t, tc.want, resp.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouterRateLimitsChat(t *testing.T) {
	r := newTestRouter(t, middlewarePkg.NewRateLimiter(0.001, 1))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/", strings.NewReader(`{"user_input":"hello"}`))
		req.RemoteAddr = "192.0.2.1:1234"
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())

	health := httptest.NewRecorder()
	r.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/api/v1/chat/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}
