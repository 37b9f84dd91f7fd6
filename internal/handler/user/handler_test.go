package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitagpt/gitagpt/internal/auth"
	"github.com/gitagpt/gitagpt/internal/model/chat"
	chatstore "github.com/gitagpt/gitagpt/internal/service/chat"
)

func setupRouter() (*chi.Mux, *chatstore.MemoryStore) {
	store := chatstore.NewMemoryStore()
	verifier := auth.NewVerifier(map[string]string{"tok-alice": "alice"})

	r := chi.NewRouter()
	New(store, nil).RegisterRoutes(r, verifier.Required)
	return r, store
}

func do(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestRoutesRequireAuth(t *testing.T) {
	r, _ := setupRouter()
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/users/profile"},
		{http.MethodPut, "/users/preferences"},
		{http.MethodGet, "/analytics/spiritual-progress"},
	} {
		assert.Equal(t, http.StatusUnauthorized, do(r, tc.method, tc.path, `{}`, "").Code, tc.path)
	}
}

func TestProfileReflectsStoredActivity(t *testing.T) {
	r, store := setupRouter()
	ctx := context.Background()
	session, err := store.CreateSession(ctx, "alice", chat.ModeSocratic)
	require.NoError(t, err)
	_, err = store.SaveMessage(ctx, chat.Message{SessionID: session.ID, Role: chat.RoleUser, Content: "why act?"})
	require.NoError(t, err)
	_, err = store.SaveMessage(ctx, chat.Message{
		SessionID:  session.ID,
		Role:       chat.RoleAssistant,
		Content:    "reflect",
		Emotion:    &chat.Emotion{Label: "confusion"},
		References: []chat.Reference{{Chapter: 3, Verse: 19}},
	})
	require.NoError(t, err)

	resp := do(r, http.MethodPut, "/users/preferences", `{"default_mode":"story"}`, "tok-alice")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = do(r, http.MethodGet, "/users/profile", "", "tok-alice")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var profile chat.Profile
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &profile))
	assert.Equal(t, "alice", profile.ID)
	assert.Equal(t, chat.Preferences{"default_mode": "story"}, profile.Preferences)
	assert.Equal(t, 1, profile.TotalConversations)
	assert.Equal(t, 1, profile.TotalMessages)
	assert.Equal(t, 1, profile.VersesExplored)
	assert.Equal(t, chat.ModeSocratic, profile.FavoriteMode)
	assert.Equal(t, "confusion", profile.MostCommonEmotion)
	assert.Equal(t, 1, profile.StreakDays)
}

func TestProfileWithoutActivity(t *testing.T) {
	r, _ := setupRouter()
	resp := do(r, http.MethodGet, "/users/profile", "", "tok-alice")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"preferences":{}`)
	assert.Contains(t, resp.Body.String(), `"most_common_emotion":"neutral"`)
	assert.Contains(t, resp.Body.String(), `"favorite_interaction_mode":"wisdom"`)
}

func TestPreferencesRejectNonObject(t *testing.T) {
	r, _ := setupRouter()
	for _, body := range []string{`null`, `["story"]`, `not json`} {
		resp := do(r, http.MethodPut, "/users/preferences", body, "tok-alice")
		assert.Equal(t, http.StatusBadRequest, resp.Code, body)
	}
}

func TestProgressTimeframe(t *testing.T) {
	store := chatstore.NewMemoryStore()
	h := New(store, nil)
	h.now = func() time.Time { return time.Now().UTC().AddDate(0, 2, 0) }
	r := chi.NewRouter()
	h.RegisterRoutes(r, auth.NewVerifier(map[string]string{"tok-alice": "alice"}).Required)

	_, err := store.CreateSession(context.Background(), "alice", chat.ModeStory)
	require.NoError(t, err)

	var progress chat.Progress
	resp := do(r, http.MethodGet, "/analytics/spiritual-progress?timeframe=week", "", "tok-alice")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &progress))
	assert.Equal(t, "alice", progress.UserID)
	assert.Equal(t, chat.TimeframeWeek, progress.Timeframe)
	assert.Zero(t, progress.TotalConversations)

	resp = do(r, http.MethodGet, "/analytics/spiritual-progress?timeframe=all", "", "tok-alice")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &progress))
	assert.Equal(t, 1, progress.TotalConversations)
	assert.Equal(t, chat.ModeStory, progress.FavoriteMode)

	resp = do(r, http.MethodGet, "/analytics/spiritual-progress", "", "tok-alice")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &progress))
	assert.Equal(t, chat.TimeframeMonth, progress.Timeframe)

	resp = do(r, http.MethodGet, "/analytics/spiritual-progress?timeframe=decade", "", "tok-alice")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
