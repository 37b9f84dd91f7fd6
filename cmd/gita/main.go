// Command gita is the terminal client for the GitaGPT backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gitagpt/gitagpt/internal/client/api"
	"github.com/gitagpt/gitagpt/internal/client/auth"
	"github.com/gitagpt/gitagpt/internal/client/config"
	"github.com/gitagpt/gitagpt/internal/client/conversation"
	"github.com/gitagpt/gitagpt/internal/model/chat"
)

// backend is what the commands need from either transport.
type backend interface {
	conversation.Exchanger
	conversation.SessionEnder
	CreateSession(ctx context.Context, mode chat.Mode) (chat.Session, error)
	History(ctx context.Context, limit int) ([]chat.SessionHistory, error)
	SessionContext(ctx context.Context, sessionID string, window int) (chat.SessionContext, error)
	Health(ctx context.Context) (chat.HealthReport, error)
	SaveMessage(ctx context.Context, sessionID string, req chat.AddMessageRequest) (chat.Message, error)
	Profile(ctx context.Context) (chat.Profile, error)
	UpdatePreferences(ctx context.Context, prefs chat.Preferences) error
	Progress(ctx context.Context, tf chat.Timeframe) (chat.Progress, error)
	RandomVerse(ctx context.Context) (chat.VersePayload, error)
	SearchVerses(ctx context.Context, req chat.VerseSearchRequest) (chat.VerseSearchResponse, error)
}

// app carries the parsed flags and the state built in PersistentPreRunE.
type app struct {
	configPath string
	apiURL     string
	token      string
	mode       string
	timeout    time.Duration
	websocket  bool
	verbose    bool
	logFile    string

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "gita",
		Short: "Talk with GitaGPT from the terminal",
		Long: `gita is a terminal client for the GitaGPT backend.

Run "gita chat" for an interactive conversation or "gita ask" for a single
question. Settings come from ~/.config/gita/config.toml, GITA_* environment
variables and the flags below, in increasing priority.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default: ~/.config/gita/config.toml)")
	flags.StringVar(&a.apiURL, "api-url", "", "Backend base URL (or set GITA_API_URL)")
	flags.StringVar(&a.token, "token", "", "Bearer token (or set GITA_TOKEN)")
	flags.StringVarP(&a.mode, "mode", "m", "", "Interaction mode: wisdom, socratic or story")
	flags.DurationVar(&a.timeout, "timeout", 0, "Per-message timeout")
	flags.BoolVar(&a.websocket, "ws", false, "Send messages over the WebSocket endpoint")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&a.logFile, "log-file", "", "Write logs to this file instead of stderr")

	root.AddCommand(
		newChatCmd(a),
		newAskCmd(a),
		newSessionCmd(a),
		newHistoryCmd(a),
		newContextCmd(a),
		newHealthCmd(a),
		newProfileCmd(a),
		newProgressCmd(a),
		newVerseCmd(a),
		newConfigCmd(a),
	)
	return root
}

// setup loads the config file, applies explicitly set flags on top and
// builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = a.apiURL
	}
	if flags.Changed("token") {
		cfg.Token = a.token
	}
	if flags.Changed("mode") {
		cfg.Mode = chat.Mode(a.mode)
	}
	if flags.Changed("timeout") {
		cfg.Timeout = a.timeout
	}
	if flags.Changed("ws") {
		cfg.WebSocket = a.websocket
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.LogLevel, a.logFile)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// newLogger writes console-encoded logs to stderr or path.
func newLogger(level, path string) (*zap.Logger, error) {
	if strings.TrimSpace(level) == "" {
		level = "warn"
	}
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.DisableStacktrace = true
	if path != "" {
		zcfg.OutputPaths = []string{path}
		zcfg.ErrorOutputPaths = []string{path}
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func (a *app) tokens() auth.TokenProvider {
	return auth.Chain(auth.Static(a.cfg.Token), auth.Env("GITA_TOKEN"))
}

// backend returns the transport for the configured endpoint. The returned
// func releases it.
func (a *app) backend() (backend, func()) {
	opts := []api.Option{
		api.WithTokenProvider(a.tokens()),
		api.WithLogger(a.logger),
	}
	if a.cfg.WebSocket {
		sc := api.NewStreamClient(a.cfg.APIURL, opts...)
		return sc, func() { _ = sc.Close() }
	}
	return api.NewClient(a.cfg.APIURL, opts...), func() {}
}

// callContext bounds a single backend call by the configured timeout.
func (a *app) callContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.cfg.Timeout)
}

func (a *app) newConversation(ex conversation.Exchanger, opts ...conversation.Option) *conversation.Conversation {
	base := []conversation.Option{
		conversation.WithLogger(a.logger),
		conversation.WithMode(a.cfg.Mode),
		conversation.WithTimeout(a.cfg.Timeout),
	}
	return conversation.New(ex, append(base, opts...)...)
}
