package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gitagpt/gitagpt/internal/client/conversation"
	"github.com/gitagpt/gitagpt/internal/model/chat"
)

// ErrStreamClosed is returned by Exchange after Close.
var ErrStreamClosed = errors.New("stream client closed")

// StreamClient exchanges messages over GET /chat/ws. The socket is dialed
// on first use and redialed once it dies. Session management calls go
// through the embedded HTTP client.
type StreamClient struct {
	*Client

	dialer *websocket.Dialer

	mu     sync.Mutex
	conn   *streamConn
	closed bool
}

// streamConn is one socket and its reader. The reader keeps the socket
// drained between exchanges, so server pings are answered while idle.
type streamConn struct {
	ws     *websocket.Conn
	frames chan []byte
	done   chan struct{}
	err    error
}

func newStreamConn(ws *websocket.Conn, logger *zap.Logger) *streamConn {
	c := &streamConn{
		ws:     ws,
		frames: make(chan []byte, 1),
		done:   make(chan struct{}),
	}
	go c.readLoop(logger)
	return c
}

// readLoop reads until the socket fails. Control frames are handled inside
// ReadMessage by the default ping handler.
func (c *streamConn) readLoop(logger *zap.Logger) {
	defer close(c.done)
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			c.err = err
			return
		}
		select {
		case c.frames <- raw:
		default:
			logger.Debug("dropping unsolicited frame", zap.Int("bytes", len(raw)))
		}
	}
}

func (c *streamConn) dead() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// NewStreamClient creates a WebSocket exchanger for baseURL.
func NewStreamClient(baseURL string, opts ...Option) *StreamClient {
	return &StreamClient{
		Client: NewClient(baseURL, opts...),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			Proxy:            http.ProxyFromEnvironment,
		},
	}
}

// Exchange implements conversation.Exchanger. ctx bounds the whole round
// trip; on cancellation the socket is closed. A socket that fails while
// the request is being written is redialed once, since the server has not
// seen the request.
func (s *StreamClient) Exchange(ctx context.Context, req conversation.Request) (chat.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return chat.Reply{}, ErrStreamClosed
	}

	frame := chat.ChatRequest{UserInput: req.Text, InteractionMode: req.Mode}
	if req.SessionID != "" {
		id := req.SessionID
		frame.SessionID = &id
	}

	var conn *streamConn
	for attempt := 0; ; attempt++ {
		c, err := s.connLocked(ctx)
		if err != nil {
			return chat.Reply{}, err
		}
		if deadline, ok := ctx.Deadline(); ok {
			c.ws.SetWriteDeadline(deadline)
		} else {
			c.ws.SetWriteDeadline(time.Time{})
		}
		err = c.ws.WriteJSON(frame)
		if err == nil {
			conn = c
			break
		}
		s.dropLocked()
		if attempt > 0 || ctx.Err() != nil {
			return chat.Reply{}, s.transportError(ctx, err)
		}
		s.logger.Debug("stale websocket, redialing", zap.Error(err))
	}

	stop := context.AfterFunc(ctx, func() { conn.ws.Close() })
	defer stop()

	var raw []byte
	select {
	case raw = <-conn.frames:
	case <-conn.done:
		select {
		case raw = <-conn.frames:
		default:
			s.dropLocked()
			return chat.Reply{}, s.transportError(ctx, conn.err)
		}
	case <-ctx.Done():
		s.dropLocked()
		return chat.Reply{}, ctx.Err()
	}

	var resp struct {
		chat.ChatResponse
		Detail *string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return chat.Reply{}, fmt.Errorf("decode frame: %w", err)
	}
	if resp.Detail != nil {
		return chat.Reply{}, &Fault{Detail: *resp.Detail}
	}
	return resp.ChatResponse.Reply(), nil
}

// Close shuts the socket. Further exchanges fail with ErrStreamClosed.
func (s *StreamClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.conn == nil {
		return nil
	}
	c := s.conn
	s.conn = nil
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	err := c.ws.Close()
	<-c.done
	return err
}

func (s *StreamClient) connLocked(ctx context.Context) (*streamConn, error) {
	if s.conn != nil {
		if !s.conn.dead() {
			return s.conn, nil
		}
		s.logger.Debug("websocket closed by peer", zap.Error(s.conn.err))
		s.dropLocked()
	}

	header := http.Header{}
	token, err := s.tokens.Token(ctx)
	if err != nil {
		s.logger.Warn("token unavailable, connecting anonymously", zap.Error(err))
	} else if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	ws, resp, err := s.dialer.DialContext(ctx, wsURL(s.baseURL)+"/chat/ws", header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, &Fault{Status: resp.StatusCode, Detail: fmt.Sprintf("HTTP %d: websocket handshake failed", resp.StatusCode)}
		}
		return nil, err
	}
	s.logger.Debug("websocket connected", zap.String("url", wsURL(s.baseURL)))
	s.conn = newStreamConn(ws, s.logger)
	return s.conn, nil
}

// dropLocked closes the current socket and waits for its reader.
func (s *StreamClient) dropLocked() {
	if s.conn != nil {
		s.conn.ws.Close()
		<-s.conn.done
		s.conn = nil
	}
}

// transportError prefers the context error when the socket was closed
// because ctx ended.
func (s *StreamClient) transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}
