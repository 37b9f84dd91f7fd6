// Package conversation serves the authenticated session management routes.
package conversation

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gitagpt/gitagpt/internal/auth"
	"github.com/gitagpt/gitagpt/internal/model/chat"
	"github.com/gitagpt/gitagpt/internal/model/verse"
	chatstore "github.com/gitagpt/gitagpt/internal/service/chat"
	"github.com/gitagpt/gitagpt/pkg/utils"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	defaultWindowSize   = 10
	maxWindowSize       = 50
	maxMessageLength    = 8000
)

// Handler exposes session lifecycle and transcript reads.
type Handler struct {
	store  chatstore.Store
	verses verse.Store
	logger *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithVerses resolves the verse_id of saved messages against verses.
// Without it verse_id is rejected.
func WithVerses(verses verse.Store) Option {
	return func(h *Handler) { h.verses = verses }
}

// New creates the conversation handler.
func New(store chatstore.Store, logger *zap.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{store: store, logger: logger.Named("conversations")}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts the routes behind requireAuth.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Route("/conversations", func(cr chi.Router) {
		cr.Use(requireAuth)
		cr.Post("/sessions", h.handleCreateSession)
		cr.Get("/history", h.handleHistory)
		cr.Post("/messages", h.handleAddMessage)
		cr.Get("/{sessionID}", h.handleGetSession)
		cr.Get("/{sessionID}/context", h.handleContext)
		cr.Post("/{sessionID}/end", h.handleEndSession)
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload chat.CreateSessionRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mode, err := chat.ParseMode(string(payload.InteractionMode))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.store.CreateSession(r.Context(), auth.UserFrom(r.Context()), mode)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultHistoryLimit, maxHistoryLimit)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessions, err := h.store.ListSessions(r.Context(), auth.UserFrom(r.Context()), limit)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	history := make([]chat.SessionHistory, 0, len(sessions))
	for _, session := range sessions {
		messages, err := h.store.LoadTranscript(r.Context(), session.ID)
		if err != nil {
			h.respondStoreError(w, err)
			return
		}
		history = append(history, chat.SessionHistory{Session: session, Messages: messages})
	}
	utils.RespondJSON(w, http.StatusOK, history)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleContext(w http.ResponseWriter, r *http.Request) {
	window, err := queryInt(r, "window_size", defaultWindowSize, maxWindowSize)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	messages, err := h.store.RecentMessages(r.Context(), session.ID, window)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	if messages == nil {
		messages = []chat.Message{}
	}
	utils.RespondJSON(w, http.StatusOK, chat.SessionContext{
		SessionID:  session.ID,
		WindowSize: window,
		Messages:   messages,
	})
}

func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	var payload chat.EndSessionRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	ended, err := h.store.EndSession(r.Context(), session.ID, payload.Summary)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	h.logger.Info("session ended", zap.String("session_id", ended.ID))
	utils.RespondJSON(w, http.StatusOK, ended)
}

func (h *Handler) handleAddMessage(w http.ResponseWriter, r *http.Request) {
	var payload chat.AddMessageRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.messageFrom(payload)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	session, ok := h.loadOwned(w, r, sessionID)
	if !ok {
		return
	}
	if session.Ended() {
		h.respondStoreError(w, chatstore.ErrSessionEnded)
		return
	}

	msg.SessionID = session.ID
	saved, err := h.store.SaveMessage(r.Context(), msg)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	h.logger.Debug("message added", zap.String("session_id", session.ID), zap.String("role", string(saved.Role)))
	utils.RespondJSON(w, http.StatusCreated, saved)
}

// messageFrom validates payload and resolves its verse reference.
func (h *Handler) messageFrom(payload chat.AddMessageRequest) (chat.Message, error) {
	if payload.Role != chat.RoleUser && payload.Role != chat.RoleAssistant {
		return chat.Message{}, errors.New("role must be user or assistant")
	}
	content := strings.TrimSpace(payload.Content)
	if content == "" {
		return chat.Message{}, errors.New("content must not be empty")
	}
	if len(content) > maxMessageLength {
		return chat.Message{}, errors.New("content must be at most " + strconv.Itoa(maxMessageLength) + " bytes")
	}

	msg := chat.Message{Role: payload.Role, Content: content}
	if payload.Role == chat.RoleAssistant && payload.Emotion != nil {
		msg.Emotion = &chat.Emotion{
			Label:      payload.Emotion.Label,
			Confidence: payload.Emotion.Confidence,
			Emoji:      payload.Emotion.Emoji,
		}
	}
	if payload.VerseID != "" {
		if h.verses == nil {
			return chat.Message{}, errors.New("verse_id is not supported")
		}
		v, ok := h.verses.FindByID(payload.VerseID)
		if !ok {
			return chat.Message{}, errors.New("unknown verse_id " + strconv.Quote(payload.VerseID))
		}
		msg.References = []chat.Reference{{
			Chapter:         v.Chapter,
			Verse:           v.Verse,
			Text:            v.Shloka,
			Transliteration: v.Transliteration,
			Meaning:         v.EngMeaning,
		}}
	}
	return msg, nil
}

// ownedSession loads the path session and checks the caller owns it. On
// failure the response has already been written.
func (h *Handler) ownedSession(w http.ResponseWriter, r *http.Request) (chat.Session, bool) {
	return h.loadOwned(w, r, chi.URLParam(r, "sessionID"))
}

func (h *Handler) loadOwned(w http.ResponseWriter, r *http.Request, id string) (chat.Session, bool) {
	session, err := h.store.GetSession(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, err)
		return chat.Session{}, false
	}
	if err := chatstore.Owned(session, auth.UserFrom(r.Context())); err != nil {
		h.respondStoreError(w, err)
		return chat.Session{}, false
	}
	return session, true
}

func (h *Handler) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatstore.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, chatstore.ErrSessionForbidden):
		utils.RespondError(w, http.StatusForbidden, "Access denied to this session")
	case errors.Is(err, chatstore.ErrSessionEnded):
		utils.RespondError(w, http.StatusConflict, "Session already ended")
	case errors.Is(err, chatstore.ErrUserRequired):
		utils.RespondError(w, http.StatusUnauthorized, auth.ErrMissingToken.Error())
	default:
		h.logger.Error("session store failure", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "Error accessing conversation history")
	}
}

func queryInt(r *http.Request, key string, def, max int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > max {
		return 0, errors.New(key + " must be between 1 and " + strconv.Itoa(max))
	}
	return n, nil
}
