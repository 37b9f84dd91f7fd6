package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/gitagpt/gitagpt/internal/auth"
	"github.com/gitagpt/gitagpt/internal/config"
	"github.com/gitagpt/gitagpt/internal/handler"
	"github.com/gitagpt/gitagpt/internal/logging"
	"github.com/gitagpt/gitagpt/internal/middleware"
	"github.com/gitagpt/gitagpt/internal/model/verse"
	"github.com/gitagpt/gitagpt/internal/service/ai"
	chatstore "github.com/gitagpt/gitagpt/internal/service/chat"
	emotionservice "github.com/gitagpt/gitagpt/internal/service/emotion"
	"github.com/gitagpt/gitagpt/internal/service/guidance"
	verseservice "github.com/gitagpt/gitagpt/internal/service/verse"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Info("no .env file loaded, using process environment", zap.Error(envErr))
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := openStore(cfg.Store, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	verses := verse.NewMemoryStore(verse.Seed())

	generators, chatModel := buildGenerators(ctx, cfg.AI, logger)

	emotionCfg := emotionservice.Config{
		Enabled:      cfg.AI.EmotionLLMEnabled,
		HistoryLimit: cfg.AI.EmotionHistoryLimit,
	}
	emotions, err := emotionservice.NewService(ctx, chatModel, emotionCfg, logger)
	if err != nil {
		logger.Warn("emotion classifier unavailable, using heuristics", zap.Error(err))
		emotions, _ = emotionservice.NewService(ctx, nil, emotionservice.Config{}, logger)
	} else if emotions.Enabled() {
		logger.Info("emotion classifier enabled")
	} else if emotionCfg.Enabled {
		logger.Info("emotion classifier requested but no chat model configured, using heuristics")
	}

	pipeline := guidance.NewService(
		emotions,
		verseservice.NewRetriever(verses),
		generators,
		store,
		guidance.Config{
			MaxInputLength:  cfg.Server.MaxInputLength,
			HistoryWindow:   cfg.Server.HistoryWindow,
			GenerateTimeout: cfg.AI.GenerateTimeout,
		},
		logger,
	)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	router := handler.NewRouter(handler.Deps{
		APIPrefix: cfg.Server.APIPrefix,
		Pipeline:  pipeline,
		Store:     store,
		Verses:    verses,
		Verifier:  auth.NewVerifier(cfg.Auth.Tokens),
		Limiter:   limiter,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("GitaGPT backend listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("prefix", cfg.Server.APIPrefix),
		zap.Int("generators", len(generators)),
		zap.Int("auth_tokens", len(cfg.Auth.Tokens)))
	return runServer(ctx, srv)
}

func openStore(cfg config.StoreConfig, logger *zap.Logger) (chatstore.Store, error) {
	if cfg.DatabasePath == "" {
		logger.Info("using in-memory session store")
		return chatstore.NewMemoryStore(), nil
	}
	store, err := chatstore.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	logger.Info("using sqlite session store", zap.String("path", cfg.DatabasePath))
	return store, nil
}

// buildGenerators returns the configured model generators in preference
// order, plus the Ark chat model for the emotion classifier when present.
func buildGenerators(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) ([]ai.Generator, model.ChatModel) {
	var (
		generators []ai.Generator
		chatModel  model.ChatModel
	)

	if cfg.Enabled() {
		cm, err := cfg.NewChatModel(ctx)
		if err != nil {
			logger.Warn("ark chat model unavailable", zap.Error(err))
		} else if gen, err := ai.NewChainGenerator(ctx, cm, logger); err != nil {
			logger.Warn("ark generator unavailable", zap.Error(err))
		} else {
			chatModel = cm
			generators = append(generators, gen)
			logger.Info("ark generator enabled", zap.String("model", cfg.Model))
		}
	}

	if cfg.GeminiEnabled() {
		gen, err := ai.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			logger.Warn("gemini generator unavailable", zap.Error(err))
		} else {
			generators = append(generators, gen)
			logger.Info("gemini generator enabled", zap.String("model", cfg.GeminiModel))
		}
	}

	if len(generators) == 0 {
		logger.Warn("no language model configured, replies will use templates")
	}
	return generators, chatModel
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
