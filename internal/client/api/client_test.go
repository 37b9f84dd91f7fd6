package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitagpt/gitagpt/internal/client/auth"
	"github.com/gitagpt/gitagpt/internal/client/conversation"
	"github.com/gitagpt/gitagpt/internal/model/chat"
)

func TestExchangeAnonymous(t *testing.T) {
	var got chat.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/chat/", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		io.WriteString(w, `{
			"reflection": "Be steady in yoga.",
			"session_id": "abc123",
			"emotion": {"label": "nervousness", "confidence": 0.82, "emoji": "😰"},
			"verses": [
				{"chapter": 2, "verse": 48, "shloka": "yoga-sthaḥ", "eng_meaning": "Perform your duty", "similarity_score": 0.9},
				{"chapter": 2, "verse": 47, "shloka": "karmaṇy", "meaning": "You have a right to action"}
			],
			"intent": "emotional_query",
			"intent_confidence": 0.7
		}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api/v1/")
	reply, err := c.Exchange(context.Background(), conversation.Request{Text: "I am anxious", Mode: chat.ModeSocratic})
	require.NoError(t, err)

	assert.Equal(t, "I am anxious", got.UserInput)
	assert.Nil(t, got.SessionID)
	assert.Equal(t, chat.ModeSocratic, got.InteractionMode)

	assert.Equal(t, "Be steady in yoga.", reply.Text)
	assert.Equal(t, "abc123", reply.SessionID)
	require.True(t, reply.HasEmotion())
	assert.Equal(t, 0.82, reply.Emotion.Confidence)
	require.Len(t, reply.References, 2)
	assert.Equal(t, "Perform your duty", reply.References[0].Meaning)
	assert.Equal(t, "You have a right to action", reply.References[1].Meaning)
	assert.Nil(t, reply.References[1].Score)
	require.True(t, reply.HasIntent())
	assert.Equal(t, 0.7, reply.Intent.Confidence)
}

func TestExchangeAttachesTokenAndSession(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		io.WriteString(w, `{"reflection":"ok","session_id":"s1"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithTokenProvider(auth.Static("tok-1")))
	reply, err := c.Exchange(context.Background(), conversation.Request{Text: "hi", SessionID: "s1", Mode: chat.ModeWisdom})
	require.NoError(t, err)
	assert.Equal(t, "s1", raw["session_id"])
	assert.False(t, reply.HasEmotion())
	assert.False(t, reply.HasReferences())
}

func TestExchangeTokenErrorFallsBackToAnonymous(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		io.WriteString(w, `{"reflection":"ok","session_id":"s1"}`)
	}))
	defer srv.Close()

	broken := auth.TokenFunc(func(context.Context) (string, error) { return "", errors.New("expired") })
	_, err := NewClient(srv.URL, WithTokenProvider(broken)).Exchange(context.Background(), conversation.Request{Text: "hi"})
	require.NoError(t, err)
}

func TestFaultDetail(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail body", http.StatusInternalServerError, `{"detail":"internal error"}`, "internal error"},
		{"plain body", http.StatusBadGateway, "bad gateway", "HTTP 502: bad gateway"},
		{"empty body", http.StatusServiceUnavailable, "", "Failed to get response"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).Exchange(context.Background(), conversation.Request{Text: "hi"})
			var fault *Fault
			require.ErrorAs(t, err, &fault)
			assert.Equal(t, tc.status, fault.Status)
			assert.Equal(t, tc.want, fault.Error())
		})
	}
}

func TestAuthRequiredBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	_, err := c.CreateSession(ctx, chat.ModeWisdom)
	assert.ErrorIs(t, err, ErrAuthRequired)
	_, err = c.EndSession(ctx, "s1", "")
	assert.ErrorIs(t, err, ErrAuthRequired)
	_, err = c.History(ctx, 10)
	assert.ErrorIs(t, err, ErrAuthRequired)
	_, err = c.SessionContext(ctx, "s1", 5)
	assert.ErrorIs(t, err, ErrAuthRequired)
	_, err = c.SaveMessage(ctx, "s1", chat.AddMessageRequest{Role: chat.RoleUser, Content: "hi"})
	assert.ErrorIs(t, err, ErrAuthRequired)
	_, err = c.Profile(ctx)
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.ErrorIs(t, c.UpdatePreferences(ctx, chat.Preferences{"default_mode": "story"}), ErrAuthRequired)
	_, err = c.Progress(ctx, chat.TimeframeWeek)
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.EqualError(t, ErrAuthRequired, "authentication required")

	assert.Zero(t, hits.Load())
}

func TestSessionOperations(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /conversations/sessions", func(w http.ResponseWriter, r *http.Request) {
		var body chat.CreateSessionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(chat.Session{ID: "s1", Mode: body.InteractionMode})
	})
	mux.HandleFunc("POST /conversations/{id}/end", func(w http.ResponseWriter, r *http.Request) {
		var body chat.EndSessionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(chat.Session{ID: r.PathValue("id"), Summary: body.Summary})
	})
	mux.HandleFunc("GET /conversations/history", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode([]chat.SessionHistory{{Session: chat.Session{ID: "s1"}}})
	})
	mux.HandleFunc("GET /conversations/{id}/context", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "4", r.URL.Query().Get("window_size"))
		json.NewEncoder(w).Encode(chat.SessionContext{SessionID: r.PathValue("id"), WindowSize: 4})
	})
	mux.HandleFunc("GET /chat/health", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(chat.HealthReport{Status: "healthy"})
	})
	authed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/conversations") && r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	})
	srv := httptest.NewServer(authed)
	defer srv.Close()

	c := NewClient(srv.URL, WithTokenProvider(auth.Static("tok")))
	ctx := context.Background()

	session, err := c.CreateSession(ctx, chat.ModeStory)
	require.NoError(t, err)
	assert.Equal(t, chat.ModeStory, session.Mode)

	ended, err := c.EndSession(ctx, "s1", "summary")
	require.NoError(t, err)
	assert.Equal(t, "summary", ended.Summary)

	history, err := c.History(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	window, err := c.SessionContext(ctx, "s1", 4)
	require.NoError(t, err)
	assert.Equal(t, "s1", window.SessionID)

	report, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", report.Status)
}

func TestConversationOverHTTP(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chat.ChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if calls.Add(1) == 1 {
			assert.Nil(t, req.SessionID)
			io.WriteString(w, `{"reflection":"first","session_id":"abc123"}`)
			return
		}
		if assert.NotNil(t, req.SessionID) {
			assert.Equal(t, "abc123", *req.SessionID)
		}
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"detail":"internal error"}`)
	}))
	defer srv.Close()

	conv := conversation.New(NewClient(srv.URL))
	require.NoError(t, conv.Submit(context.Background(), "How do I find peace?"))
	require.NoError(t, conv.Submit(context.Background(), "Thank you"))

	snap := conv.Snapshot()
	require.Len(t, snap.Messages, 4)
	assert.Equal(t, "Thank you", snap.Messages[2].Content)
	assert.Equal(t, chat.RoleError, snap.Messages[3].Role)
	assert.Equal(t, conversation.ErrorContent("internal error"), snap.Messages[3].Content)
	assert.Equal(t, "internal error", snap.Banner)
	assert.Equal(t, "abc123", snap.SessionID)
}

func TestSlowExchangeBoundedByConversationTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	assert.Zero(t, c.http.Timeout, "the caller's context is the only bound")

	conv := conversation.New(c, conversation.WithTimeout(100*time.Millisecond))
	require.NoError(t, conv.Submit(context.Background(), "Are you there?"))

	snap := conv.Snapshot()
	assert.Equal(t, "request timed out after 100ms", snap.Banner)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, chat.RoleError, snap.Messages[1].Role)
}

func TestProfileAndVerseOperations(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /conversations/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "s 1", r.URL.Query().Get("session_id"))
		var body chat.AddMessageRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(chat.Message{ID: "m1", SessionID: "s 1", Role: body.Role, Content: body.Content})
	})
	mux.HandleFunc("GET /users/profile", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"alice","preferences":{"default_mode":"story"},"total_conversations":4,"total_messages":9,"verses_explored":3,"spiritual_streak_days":2,"favorite_interaction_mode":"story","most_common_emotion":"fear"}`)
	})
	mux.HandleFunc("PUT /users/preferences", func(w http.ResponseWriter, r *http.Request) {
		var body chat.Preferences
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, chat.Preferences{"default_mode": "socratic"}, body)
		io.WriteString(w, `{"message":"Preferences updated successfully"}`)
	})
	mux.HandleFunc("GET /analytics/spiritual-progress", func(w http.ResponseWriter, r *http.Request) {
		tf := r.URL.Query().Get("timeframe")
		io.WriteString(w, `{"user_id":"alice","timeframe":"`+tf+`","total_conversations":1}`)
	})
	mux.HandleFunc("GET /verses/random", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		io.WriteString(w, `{"id":"BG2.47","chapter":2,"verse":47,"shloka":"karmaṇy","eng_meaning":"Right to action alone"}`)
	})
	mux.HandleFunc("POST /verses/search", func(w http.ResponseWriter, r *http.Request) {
		var body chat.VerseSearchRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, chat.VerseSearchRequest{Query: "duty", Emotion: "fear", TopK: 2}, body)
		io.WriteString(w, `{"query":"duty","verses":[{"chapter":3,"verse":35,"shloka":"śreyān","similarity_score":0.85}]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, WithTokenProvider(auth.Static("tok")))
	ctx := context.Background()

	msg, err := c.SaveMessage(ctx, "s 1", chat.AddMessageRequest{Role: chat.RoleUser, Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)

	profile, err := c.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.ID)
	assert.Equal(t, 9, profile.TotalMessages)
	assert.Equal(t, chat.ModeStory, profile.FavoriteMode)
	assert.Equal(t, "story", profile.Preferences["default_mode"])

	require.NoError(t, c.UpdatePreferences(ctx, chat.Preferences{"default_mode": "socratic"}))

	progress, err := c.Progress(ctx, chat.TimeframeYear)
	require.NoError(t, err)
	assert.Equal(t, chat.TimeframeYear, progress.Timeframe)
	assert.Equal(t, 1, progress.TotalConversations)

	v, err := c.RandomVerse(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Right to action alone", v.Reference().Meaning)

	found, err := c.SearchVerses(ctx, chat.VerseSearchRequest{Query: "duty", Emotion: "fear", TopK: 2})
	require.NoError(t, err)
	require.Len(t, found.Verses, 1)
	assert.Equal(t, 35, found.Verses[0].Verse)
}
