// Package conversation owns the client-side state of one chat conversation:
// the ordered transcript, the lazily assigned session id, the interaction
// mode, the input draft and the error banner.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gitagpt/gitagpt/internal/model/chat"
)

// DefaultTimeout bounds a single exchange.
const DefaultTimeout = 60 * time.Second

var (
	ErrEmptyInput       = errors.New("message is empty")
	ErrExchangeInFlight = errors.New("an exchange is already in progress")
	ErrNoSession        = errors.New("no session has been assigned yet")
	ErrNotSupported     = errors.New("operation not supported by this backend")
	ErrTimeout          = errors.New("request timed out")
	errExchangePanic    = errors.New("exchange failed unexpectedly")
)

// Request is one outgoing exchange. An empty SessionID asks the backend to
// assign one.
type Request struct {
	Text      string
	SessionID string
	Mode      chat.Mode
}

// Exchanger sends a message to the chat backend.
type Exchanger interface {
	Exchange(ctx context.Context, req Request) (chat.Reply, error)
}

// SessionEnder is implemented by exchangers that can close a session.
type SessionEnder interface {
	EndSession(ctx context.Context, sessionID, summary string) (chat.Session, error)
}

// Snapshot is a point-in-time copy of the conversation state.
type Snapshot struct {
	Messages  []chat.Message
	SessionID string
	Mode      chat.Mode
	Pending   bool
	Draft     string
	Banner    string
}

// Conversation is safe for concurrent use, but exchanges are strictly
// sequential: a Submit made while another is pending is rejected.
type Conversation struct {
	exchanger Exchanger
	logger    *zap.Logger
	timeout   time.Duration
	now       func() time.Time
	observers []func(Snapshot)

	mu       sync.Mutex
	messages []chat.Message
	session  sessionState
	mode     chat.Mode
	pending  bool
	draft    string
	banner   string
}

// Option configures a Conversation.
type Option func(*Conversation)

// WithLogger sets the logger used for faults and session conflicts.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Conversation) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMode sets the initial interaction mode.
func WithMode(mode chat.Mode) Option {
	return func(c *Conversation) {
		if mode.Valid() {
			c.mode = mode
		}
	}
}

// WithTimeout bounds each exchange. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Conversation) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock overrides the message timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Conversation) {
		if now != nil {
			c.now = now
		}
	}
}

// WithObserver registers fn to receive a snapshot after every state change.
// Observers run outside the conversation lock, on the goroutine that caused
// the change.
func WithObserver(fn func(Snapshot)) Option {
	return func(c *Conversation) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

// New creates an idle conversation with no session.
func New(exchanger Exchanger, opts ...Option) *Conversation {
	c := &Conversation{
		exchanger: exchanger,
		logger:    zap.NewNop(),
		timeout:   DefaultTimeout,
		now:       time.Now,
		mode:      chat.DefaultMode,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("conversation")
	return c
}

// Submit sends userText to the backend. The user message is appended and
// observers notified before the exchange starts; exactly one assistant or
// error message follows when it resolves. A failed exchange is not returned
// as an error: it is recorded in the transcript and the banner.
func (c *Conversation) Submit(ctx context.Context, userText string) error {
	if strings.TrimSpace(userText) == "" {
		return ErrEmptyInput
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return ErrExchangeInFlight
	}
	c.messages = append(c.messages, c.newMessage(chat.RoleUser, userText))
	c.draft = ""
	c.banner = ""
	c.pending = true
	req := Request{Text: userText, SessionID: c.session.id, Mode: c.mode}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	var (
		reply chat.Reply
		err   error
	)
	defer func() {
		c.mu.Lock()
		if err != nil {
			c.recordFailureLocked(err)
		} else {
			c.recordReplyLocked(reply)
		}
		c.pending = false
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
	}()

	reply, err = c.exchange(ctx, req)
	return nil
}

// exchange runs the call on its own goroutine so a timeout or cancellation
// returns promptly. A reply arriving after that is dropped.
func (c *Conversation) exchange(ctx context.Context, req Request) (chat.Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		reply chat.Reply
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: %v", errExchangePanic, r)}
			}
		}()
		reply, err := c.exchanger.Exchange(ctx, req)
		done <- result{reply: reply, err: err}
	}()

	select {
	case res := <-done:
		return res.reply, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return chat.Reply{}, fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		return chat.Reply{}, ctx.Err()
	}
}

func (c *Conversation) recordReplyLocked(reply chat.Reply) {
	if err := c.session.adopt(reply.SessionID); err != nil {
		c.logger.Warn("ignoring session id from backend", zap.Error(err))
	}

	msg := c.newMessage(chat.RoleAssistant, reply.Text)
	msg.Emotion = reply.Emotion
	msg.References = reply.References
	msg.Intent = reply.Intent
	c.messages = append(c.messages, msg.Clone())
}

func (c *Conversation) recordFailureLocked(err error) {
	detail := FaultDetail(err)
	c.logger.Error("exchange failed",
		zap.String("session_id", c.session.id),
		zap.Error(err))
	c.messages = append(c.messages, c.newMessage(chat.RoleError, ErrorContent(detail)))
	c.banner = detail
}

// FaultDetail is the human-readable text shown for a failed exchange.
func FaultDetail(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return err.Error()
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.Is(err, errExchangePanic):
		return errExchangePanic.Error()
	}
	if detail := strings.TrimSpace(err.Error()); detail != "" {
		return detail
	}
	return "unknown error"
}

// ErrorContent is the transcript text of an error message.
func ErrorContent(detail string) string {
	return fmt.Sprintf("I apologize, but I encountered an error processing your message (%s). Please try again.", detail)
}

// SwitchMode changes the mode used by the next Submit. Existing messages
// are untouched.
func (c *Conversation) SwitchMode(mode chat.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid interaction mode %q", mode)
	}
	c.mu.Lock()
	c.mode = mode
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	return nil
}

// Mode returns the current interaction mode.
func (c *Conversation) Mode() chat.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetDraft replaces the input buffer.
func (c *Conversation) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// Draft returns the input buffer.
func (c *Conversation) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// ClearDraft empties the input buffer.
func (c *Conversation) ClearDraft() {
	c.SetDraft("")
}

// DismissError clears the error banner. Error messages stay in the transcript.
func (c *Conversation) DismissError() {
	c.mu.Lock()
	c.banner = ""
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// Messages returns a deep copy of the transcript.
func (c *Conversation) Messages() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyMessagesLocked()
}

// SessionID returns the adopted session id, or "" before the first reply.
func (c *Conversation) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.id
}

// Pending reports whether an exchange is in flight.
func (c *Conversation) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Snapshot returns a copy of the whole state.
func (c *Conversation) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// EndSession closes the current session on the backend.
func (c *Conversation) EndSession(ctx context.Context, summary string) (chat.Session, error) {
	ender, ok := c.exchanger.(SessionEnder)
	if !ok {
		return chat.Session{}, ErrNotSupported
	}
	id := c.SessionID()
	if id == "" {
		return chat.Session{}, ErrNoSession
	}
	return ender.EndSession(ctx, id, summary)
}

func (c *Conversation) newMessage(role chat.Role, content string) chat.Message {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return chat.Message{
		ID:        id.String(),
		Role:      role,
		Content:   content,
		Timestamp: c.now(),
	}
}

func (c *Conversation) snapshotLocked() Snapshot {
	return Snapshot{
		Messages:  c.copyMessagesLocked(),
		SessionID: c.session.id,
		Mode:      c.mode,
		Pending:   c.pending,
		Draft:     c.draft,
		Banner:    c.banner,
	}
}

func (c *Conversation) copyMessagesLocked() []chat.Message {
	out := make([]chat.Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.Clone()
	}
	return out
}

func (c *Conversation) notify(snap Snapshot) {
	for i, fn := range c.observers {
		if i > 0 {
			snap.Messages = cloneAll(snap.Messages)
		}
		fn(snap)
	}
}

func cloneAll(messages []chat.Message) []chat.Message {
	out := make([]chat.Message, len(messages))
	for i, m := range messages {
		out[i] = m.Clone()
	}
	return out
}
