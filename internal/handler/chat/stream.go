package chat

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/gitagpt/gitagpt/internal/model/chat"
	"github.com/gitagpt/gitagpt/pkg/utils"
)

// wordsPerDelta is how many words each delta event carries.
const wordsPerDelta = 8

// StreamEvent is the data of the session and delta events.
type StreamEvent struct {
	SessionID string `json:"session_id"`
	Content   string `json:"content,omitempty"`
}

// handleStream answers a ChatRequest as Server-Sent Events: session,
// emotion, verses, a run of delta chunks of the reflection, then end with
// the full ChatResponse. The reply is produced before the first event, so
// failures get the same status and {"detail"} body as POST /chat/.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

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

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	send := func(event string, data any) bool {
		if err := utils.SendSSEEvent(w, flusher, event, data); err != nil {
			h.logger.Debug("stream closed", zap.String("event", event), zap.Error(err))
			return false
		}
		return r.Context().Err() == nil
	}

	if !send("session", StreamEvent{SessionID: resp.SessionID}) {
		return
	}
	if resp.Emotion != nil && !send("emotion", resp.Emotion) {
		return
	}
	if len(resp.Verses) > 0 && !send("verses", resp.Verses) {
		return
	}
	for _, chunk := range chunkWords(resp.Reflection, wordsPerDelta) {
		if !send("delta", StreamEvent{SessionID: resp.SessionID, Content: chunk}) {
			return
		}
	}
	send("end", resp)
}

// chunkWords splits text into pieces of n words. Concatenating the pieces
// gives back text with its original spacing.
func chunkWords(text string, n int) []string {
	if text == "" {
		return nil
	}
	var (
		chunks []string
		words  int
		start  int
		inWord bool
	)
	for i, r := range text {
		space := r == ' ' || r == '\n' || r == '\t' || r == '\r'
		if !space && !inWord {
			if words == n {
				chunks = append(chunks, text[start:i])
				start, words = i, 0
			}
			words++
		}
		inWord = !space
	}
	return append(chunks, text[start:])
}
