// Package user serves the caller's profile, preferences and progress.
package user

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gitagpt/gitagpt/internal/auth"
	"github.com/gitagpt/gitagpt/internal/model/chat"
	chatstore "github.com/gitagpt/gitagpt/internal/service/chat"
	"github.com/gitagpt/gitagpt/pkg/utils"
)

// Handler answers from the session store of the authenticated user.
type Handler struct {
	store  chatstore.Store
	logger *zap.Logger
	now    func() time.Time
}

// New creates the user handler.
func New(store chatstore.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:  store,
		logger: logger.Named("users"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes mounts the routes behind requireAuth.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Group(func(ar chi.Router) {
		ar.Use(requireAuth)
		ar.Get("/users/profile", h.handleProfile)
		ar.Put("/users/preferences", h.handlePreferences)
		ar.Get("/analytics/spiritual-progress", h.handleProgress)
	})
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFrom(r.Context())

	act, err := chatstore.Summarize(r.Context(), h.store, userID, time.Time{}, h.now())
	if err != nil {
		h.respondError(w, err, "Failed to retrieve user profile")
		return
	}
	prefs, err := h.store.Preferences(r.Context(), userID)
	if err != nil {
		h.respondError(w, err, "Failed to retrieve user profile")
		return
	}
	if prefs == nil {
		prefs = chat.Preferences{}
	}
	utils.RespondJSON(w, http.StatusOK, chat.Profile{ID: userID, Preferences: prefs, Activity: act})
}

func (h *Handler) handlePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs chat.Preferences
	if err := utils.DecodeJSON(w, r, &prefs); err != nil || prefs == nil {
		utils.RespondError(w, http.StatusBadRequest, "preferences must be a JSON object")
		return
	}

	userID := auth.UserFrom(r.Context())
	if err := h.store.SavePreferences(r.Context(), userID, prefs); err != nil {
		h.respondError(w, err, "Failed to update preferences")
		return
	}
	h.logger.Info("preferences updated", zap.String("user_id", userID), zap.Int("keys", len(prefs)))
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Preferences updated successfully"})
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	tf, err := chat.ParseTimeframe(r.URL.Query().Get("timeframe"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := auth.UserFrom(r.Context())
	now := h.now()
	act, err := chatstore.Summarize(r.Context(), h.store, userID, tf.Since(now), now)
	if err != nil {
		h.respondError(w, err, "Failed to retrieve spiritual progress")
		return
	}
	utils.RespondJSON(w, http.StatusOK, chat.Progress{UserID: userID, Timeframe: tf, Activity: act})
}

func (h *Handler) respondError(w http.ResponseWriter, err error, detail string) {
	if errors.Is(err, chatstore.ErrUserRequired) {
		utils.RespondError(w, http.StatusUnauthorized, auth.ErrMissingToken.Error())
		return
	}
	h.logger.Error("user store failure", zap.Error(err))
	utils.RespondError(w, http.StatusInternalServerError, detail)
}
