package chat

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gitagpt/gitagpt/internal/auth"
	"github.com/gitagpt/gitagpt/internal/model/chat"
	chatstore "github.com/gitagpt/gitagpt/internal/service/chat"
	"github.com/gitagpt/gitagpt/internal/service/guidance"
	"github.com/gitagpt/gitagpt/pkg/utils"
)

// Pipeline is the part of the guidance service the chat routes need.
type Pipeline interface {
	Respond(ctx context.Context, in guidance.Input) (chat.ChatResponse, error)
	Health(ctx context.Context) chat.HealthReport
}

// Handler serves the chat endpoints.
type Handler struct {
	pipeline Pipeline
	logger   *zap.Logger
	ws       *WebSocketHandler
}

// Option configures a Handler.
type Option func(*Handler)

// WithKeepalive sets the WebSocket ping interval and how long a socket may
// stay silent, pongs included, before it is closed. pingInterval must be
// shorter than pongWait.
func WithKeepalive(pingInterval, pongWait time.Duration) Option {
	return func(h *Handler) {
		if pingInterval > 0 && pongWait > pingInterval {
			h.ws.pingInterval = pingInterval
			h.ws.pongWait = pongWait
		}
	}
}

// New creates the chat handler.
func New(pipeline Pipeline, logger *zap.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("chat")
	h := &Handler{
		pipeline: pipeline,
		logger:   logger,
		ws:       newWebSocketHandler(pipeline, logger),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts the chat routes. limit wraps the message endpoints
// and may be nil.
func (h *Handler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Route("/chat", func(cr chi.Router) {
		cr.Get("/health", h.handleHealth)
		cr.Group(func(g chi.Router) {
			if limit != nil {
				g.Use(limit)
			}
			g.Post("/", h.handleChat)
			g.Post("/stream", h.handleStream)
			g.Get("/ws", h.ws.serve)
		})
	})
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.ChatRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.pipeline.Respond(r.Context(), toInput(r.Context(), req))
	if err != nil {
		status, detail := h.classify(err)
		utils.RespondError(w, status, detail)
		return
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.pipeline.Health(r.Context()))
}

// classify maps a pipeline error to a status code and detail text.
func (h *Handler) classify(err error) (int, string) {
	switch {
	case guidance.IsValidation(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, chatstore.ErrSessionForbidden):
		return http.StatusForbidden, "Access denied to this session"
	default:
		h.logger.Error("chat request failed", zap.Error(err))
		return http.StatusInternalServerError, "Error processing chat request"
	}
}

func toInput(ctx context.Context, req chat.ChatRequest) guidance.Input {
	in := guidance.Input{
		UserInput: req.UserInput,
		Mode:      string(req.InteractionMode),
		UserID:    auth.UserFrom(ctx),
	}
	if req.SessionID != nil {
		in.SessionID = *req.SessionID
	}
	return in
}
