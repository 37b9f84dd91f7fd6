package chat

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gitagpt/gitagpt/internal/model/chat"
)

const (
	defaultPongWait     = 60 * time.Second
	defaultPingInterval = 54 * time.Second
	writeWait           = 10 * time.Second
)

// WebSocketHandler runs the chat pipeline over a WebSocket. Every text frame
// is a chat request and is answered by exactly one response or error frame.
type WebSocketHandler struct {
	pipeline Pipeline
	logger   *zap.Logger
	upgrader websocket.Upgrader

	pingInterval time.Duration
	pongWait     time.Duration
}

func newWebSocketHandler(pipeline Pipeline, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		pipeline: pipeline,
		logger:   logger.Named("ws"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pingInterval: defaultPingInterval,
		pongWait:     defaultPongWait,
	}
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	go h.pingLoop(ctx, conn)

	for {
		var req chat.ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Info("read error", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(h.pongWait))

		var frame any
		resp, err := h.pipeline.Respond(ctx, toInput(r.Context(), req))
		if err != nil {
			_, detail := (&Handler{logger: h.logger}).classify(err)
			frame = chat.ErrorResponse{Detail: detail}
		} else {
			frame = resp
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(frame); err != nil {
			h.logger.Warn("write failed", zap.Error(err))
			return
		}
	}
}

// pingLoop uses control frames, which may be written concurrently with
// the reply writer.
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
