// Package api is the HTTP and WebSocket client of the chat backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gitagpt/gitagpt/internal/client/auth"
	"github.com/gitagpt/gitagpt/internal/client/conversation"
	"github.com/gitagpt/gitagpt/internal/model/chat"
)

const (
	DefaultBaseURL = "http://localhost:8000/api/v1"

	// MaxResponseSize caps how much of a response body is read.
	MaxResponseSize = 4 << 20
)

// ErrAuthRequired is returned before any network call by operations that
// need an identity when no token is available.
var ErrAuthRequired = errors.New("authentication required")

// Fault is a non-2xx response from the backend.
type Fault struct {
	Status int
	Detail string
}

func (f *Fault) Error() string {
	return f.Detail
}

// Client talks to the chat backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  auth.TokenProvider
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenProvider sets the identity source.
func WithTokenProvider(p auth.TokenProvider) Option {
	return func(c *Client) {
		if p != nil {
			c.tokens = p
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for baseURL, e.g. "http://localhost:8000/api/v1".
// Calls are bounded only by their context.
func NewClient(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  auth.Anonymous,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("api")
	return c
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Exchange implements conversation.Exchanger via POST /chat/. The bearer
// token is attached only when the provider has one.
func (c *Client) Exchange(ctx context.Context, req conversation.Request) (chat.Reply, error) {
	body := chat.ChatRequest{
		UserInput:       req.Text,
		InteractionMode: req.Mode,
	}
	if req.SessionID != "" {
		id := req.SessionID
		body.SessionID = &id
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Warn("token unavailable, sending anonymously", zap.Error(err))
		token = ""
	}

	var resp chat.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat/", token, body, &resp, "Failed to get response"); err != nil {
		return chat.Reply{}, err
	}
	return resp.Reply(), nil
}

// CreateSession opens a session explicitly. Requires identity.
func (c *Client) CreateSession(ctx context.Context, mode chat.Mode) (chat.Session, error) {
	token, err := c.requireToken(ctx)
	if err != nil {
		return chat.Session{}, err
	}
	var session chat.Session
	err = c.do(ctx, http.MethodPost, "/conversations/sessions", token,
		chat.CreateSessionRequest{InteractionMode: mode}, &session, "Failed to create session")
	return session, err
}

// EndSession closes a session. Requires identity.
func (c *Client) EndSession(ctx context.Context, sessionID, summary string) (chat.Session, error) {
	token, err := c.requireToken(ctx)
	if err != nil {
		return chat.Session{}, err
	}
	var session chat.Session
	err = c.do(ctx, http.MethodPost, "/conversations/"+url.PathEscape(sessionID)+"/end", token,
		chat.EndSessionRequest{Summary: summary}, &session, "Failed to end session")
	return session, err
}

// History lists the caller's sessions with their transcripts. Requires identity.
func (c *Client) History(ctx context.Context, limit int) ([]chat.SessionHistory, error) {
	token, err := c.requireToken(ctx)
	if err != nil {
		return nil, err
	}
	path := "/conversations/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var history []chat.SessionHistory
	err = c.do(ctx, http.MethodGet, path, token, nil, &history, "Failed to load history")
	return history, err
}

// SessionContext returns the last window messages of a session. Requires identity.
func (c *Client) SessionContext(ctx context.Context, sessionID string, window int) (chat.SessionContext, error) {
	token, err := c.requireToken(ctx)
	if err != nil {
		return chat.SessionContext{}, err
	}
	path := "/conversations/" + url.PathEscape(sessionID) + "/context"
	if window > 0 {
		path += "?window_size=" + strconv.Itoa(window)
	}
	var out chat.SessionContext
	err = c.do(ctx, http.MethodGet, path, token, nil, &out, "Failed to load session context")
	return out, err
}

// Health fetches the backend health report. Anonymous.
func (c *Client) Health(ctx context.Context) (chat.HealthReport, error) {
	var report chat.HealthReport
	err := c.do(ctx, http.MethodGet, "/chat/health", "", nil, &report, "Health check failed")
	return report, err
}

// SaveMessage appends a message to a session the caller owns. Requires identity.
func (c *Client) SaveMessage(ctx context.Context, sessionID string, req chat.AddMessageRequest) (chat.Message, error) {
	token, err := c.requireToken(ctx)
	if err != nil {
		return chat.Message{}, err
	}
	var msg chat.Message
	err = c.do(ctx, http.MethodPost, "/conversations/messages?session_id="+url.QueryEscape(sessionID), token,
		req, &msg, "Failed to add message to conversation")
	return msg, err
}

// Profile fetches the caller's profile and lifetime activity. Requires identity.
func (c *Client) Profile(ctx context.Context) (chat.Profile, error) {
	token, err := c.requireToken(ctx)
	if err != nil {
		return chat.Profile{}, err
	}
	var profile chat.Profile
	err = c.do(ctx, http.MethodGet, "/users/profile", token, nil, &profile, "Failed to get user profile")
	return profile, err
}

// UpdatePreferences replaces the caller's stored preferences. Requires identity.
func (c *Client) UpdatePreferences(ctx context.Context, prefs chat.Preferences) error {
	token, err := c.requireToken(ctx)
	if err != nil {
		return err
	}
	if prefs == nil {
		prefs = chat.Preferences{}
	}
	return c.do(ctx, http.MethodPut, "/users/preferences", token, prefs, nil, "Failed to update preferences")
}

// Progress fetches the caller's activity within tf. Requires identity.
func (c *Client) Progress(ctx context.Context, tf chat.Timeframe) (chat.Progress, error) {
	token, err := c.requireToken(ctx)
	if err != nil {
		return chat.Progress{}, err
	}
	path := "/analytics/spiritual-progress"
	if tf != "" {
		path += "?timeframe=" + url.QueryEscape(string(tf))
	}
	var progress chat.Progress
	err = c.do(ctx, http.MethodGet, path, token, nil, &progress, "Failed to get spiritual progress")
	return progress, err
}

// RandomVerse fetches one verse at random. Anonymous.
func (c *Client) RandomVerse(ctx context.Context) (chat.VersePayload, error) {
	var v chat.VersePayload
	err := c.do(ctx, http.MethodGet, "/verses/random", "", nil, &v, "Failed to fetch random verse")
	return v, err
}

// SearchVerses ranks verses against query, optionally boosted by emotion. Anonymous.
func (c *Client) SearchVerses(ctx context.Context, req chat.VerseSearchRequest) (chat.VerseSearchResponse, error) {
	var out chat.VerseSearchResponse
	err := c.do(ctx, http.MethodPost, "/verses/search", "", req, &out, "Failed to search verses")
	return out, err
}

func (c *Client) requireToken(ctx context.Context) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}
	if token == "" {
		return "", ErrAuthRequired
	}
	return token, nil
}

// do sends a JSON request and decodes a JSON response into out. Non-2xx
// responses become a *Fault whose detail comes from the {"detail"} body,
// then the raw body, then fallback.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any, fallback string) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("backend call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newFault(resp.StatusCode, raw, fallback)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func newFault(status int, raw []byte, fallback string) *Fault {
	var body chat.ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && strings.TrimSpace(body.Detail) != "" {
		return &Fault{Status: status, Detail: body.Detail}
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return &Fault{Status: status, Detail: fmt.Sprintf("HTTP %d: %s", status, text)}
	}
	return &Fault{Status: status, Detail: fallback}
}
