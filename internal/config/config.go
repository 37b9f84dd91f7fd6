package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting of the chat backend.
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Store     StoreConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	rateLimit, err := loadRateLimitConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		AI:        ai,
		Store:     StoreConfig{DatabasePath: strings.TrimSpace(os.Getenv("DATABASE_PATH"))},
		Auth:      auth,
		RateLimit: rateLimit,
		Log:       logCfg,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string
	APIPrefix      string
	MaxInputLength int
	HistoryWindow  int
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	var addr string
	switch {
	case strings.Contains(port, " "):
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	case strings.Contains(port, ":"):
		// Accept ":8000" or "127.0.0.1:8000" verbatim.
		addr = port
	default:
		addr = ":" + port
	}

	maxInput := 5000
	if override, err := parseOptionalIntEnv("CHAT_MAX_INPUT_LENGTH"); err != nil {
		return ServerConfig{}, err
	} else if override != nil && *override > 0 {
		maxInput = *override
	}

	window := 10
	if override, err := parseOptionalIntEnv("CHAT_HISTORY_WINDOW"); err != nil {
		return ServerConfig{}, err
	} else if override != nil {
		if *override < 1 {
			window = 1
		} else {
			window = *override
		}
	}

	return ServerConfig{
		Addr:           addr,
		APIPrefix:      getEnvOrDefault("API_PREFIX", "/api/v1"),
		MaxInputLength: maxInput,
		HistoryWindow:  window,
	}, nil
}

// AIConfig describes the language model backends.
type AIConfig struct {
	APIKey              string
	AccessKey           string
	SecretKey           string
	Model               string
	BaseURL             string
	Region              string
	Temperature         *float64
	TopP                *float64
	MaxTokens           *int
	EmotionLLMEnabled   bool
	EmotionHistoryLimit int
	GeminiAPIKey        string
	GeminiModel         string
	GenerateTimeout     time.Duration
}

// Enabled reports whether Ark credentials and a model are configured.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// GeminiEnabled reports whether a Gemini API key is configured.
func (c AIConfig) GeminiEnabled() bool {
	return c.GeminiAPIKey != ""
}

// NewChatModel creates an Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_API_KEY and ARK_MODEL, or ARK_ACCESS_KEY and ARK_SECRET_KEY")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	emotionEnabled, err := parseBoolEnv("AI_EMOTION_LLM_ENABLED", false)
	if err != nil {
		return AIConfig{}, err
	}

	emotionHistory := 6
	if historyOverride, err := parseOptionalIntEnv("AI_EMOTION_HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if historyOverride != nil {
		if *historyOverride < 1 {
			emotionHistory = 1
		} else {
			emotionHistory = *historyOverride
		}
	}

	timeout, err := parseDurationEnv("AI_GENERATE_TIMEOUT", 30*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:              strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:           strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:           strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:               strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:             getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:              getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:         temperature,
		TopP:                topP,
		MaxTokens:           maxTokens,
		EmotionLLMEnabled:   emotionEnabled,
		EmotionHistoryLimit: emotionHistory,
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:         getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GenerateTimeout:     timeout,
	}, nil
}

// StoreConfig selects the session store. An empty path keeps sessions in memory.
type StoreConfig struct {
	DatabasePath string
}

// AuthConfig maps bearer tokens to user ids.
type AuthConfig struct {
	Tokens map[string]string
}

// loadAuthConfig parses AUTH_TOKENS="token:user,token2:user2".
func loadAuthConfig() (AuthConfig, error) {
	tokens := make(map[string]string)
	raw := strings.TrimSpace(os.Getenv("AUTH_TOKENS"))
	if raw == "" {
		return AuthConfig{Tokens: tokens}, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, user, ok := strings.Cut(pair, ":")
		token, user = strings.TrimSpace(token), strings.TrimSpace(user)
		if !ok || token == "" || user == "" {
			return AuthConfig{}, fmt.Errorf("invalid AUTH_TOKENS entry %q: want token:user", pair)
		}
		tokens[token] = user
	}
	return AuthConfig{Tokens: tokens}, nil
}

// RateLimitConfig bounds chat requests per client address.
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

func loadRateLimitConfig() (RateLimitConfig, error) {
	enabled, err := parseBoolEnv("RATE_LIMIT_ENABLED", true)
	if err != nil {
		return RateLimitConfig{}, err
	}

	rps := 1.0
	if override, err := parseOptionalFloatEnv("RATE_LIMIT_RPS"); err != nil {
		return RateLimitConfig{}, err
	} else if override != nil && *override > 0 {
		rps = *override
	}

	burst := 5
	if override, err := parseOptionalIntEnv("RATE_LIMIT_BURST"); err != nil {
		return RateLimitConfig{}, err
	} else if override != nil && *override > 0 {
		burst = *override
	}

	return RateLimitConfig{Enabled: enabled, RPS: rps, Burst: burst}, nil
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string
	Development bool
}

func loadLogConfig() (LogConfig, error) {
	dev, err := parseBoolEnv("LOG_DEVELOPMENT", false)
	if err != nil {
		return LogConfig{}, err
	}
	return LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "info"), Development: dev}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
