package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/gitagpt/gitagpt/internal/auth"
	"github.com/gitagpt/gitagpt/internal/handler/chat"
	"github.com/gitagpt/gitagpt/internal/handler/conversation"
	"github.com/gitagpt/gitagpt/internal/handler/user"
	"github.com/gitagpt/gitagpt/internal/handler/verse"
	"github.com/gitagpt/gitagpt/internal/logging"
	middlewarePkg "github.com/gitagpt/gitagpt/internal/middleware"
	verseModel "github.com/gitagpt/gitagpt/internal/model/verse"
	chatService "github.com/gitagpt/gitagpt/internal/service/chat"
)

// Deps are the services the router exposes.
type Deps struct {
	APIPrefix string
	Pipeline  chat.Pipeline
	Store     chatService.Store
	Verses    verseModel.Store
	Verifier  *auth.Verifier
	// Limiter throttles the chat message routes; nil disables it.
	Limiter *middlewarePkg.RateLimiter
	Logger  *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	logger := logging.OrNop(deps.Logger)
	prefix := deps.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	verifier := deps.Verifier
	if verifier == nil {
		verifier = auth.NewVerifier(nil)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	var limit func(http.Handler) http.Handler
	if deps.Limiter != nil {
		limit = deps.Limiter.Middleware
	}

	r.Route(prefix, func(api chi.Router) {
		api.Group(func(public chi.Router) {
			public.Use(verifier.Optional)
			chat.New(deps.Pipeline, logger).RegisterRoutes(public, limit)
		})

		var convOpts []conversation.Option
		if deps.Verses != nil {
			convOpts = append(convOpts, conversation.WithVerses(deps.Verses))
			verse.New(deps.Verses).RegisterRoutes(api)
		}
		conversation.New(deps.Store, logger, convOpts...).RegisterRoutes(api, verifier.Required)
		user.New(deps.Store, logger).RegisterRoutes(api, verifier.Required)
	})

	return r
}
