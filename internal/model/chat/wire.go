package chat

// ChatRequest is the body of POST /chat/ and of each WebSocket chat frame.
type ChatRequest struct {
	UserInput       string  `json:"user_input"`
	SessionID       *string `json:"session_id"`
	InteractionMode Mode    `json:"interaction_mode"`
}

// EmotionPayload is the emotion block of a chat response.
type EmotionPayload struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Emoji      string  `json:"emoji"`
	Color      string  `json:"color,omitempty"`
}

// VersePayload is one retrieved verse. Older servers send the English
// meaning as "meaning" instead of "eng_meaning"; both are accepted.
type VersePayload struct {
	ID              string   `json:"id,omitempty"`
	Chapter         int      `json:"chapter"`
	Verse           int      `json:"verse"`
	Shloka          string   `json:"shloka"`
	Transliteration string   `json:"transliteration,omitempty"`
	EngMeaning      string   `json:"eng_meaning,omitempty"`
	Meaning         string   `json:"meaning,omitempty"`
	SimilarityScore *float64 `json:"similarity_score,omitempty"`
}

// ChatResponse is the success body of POST /chat/.
type ChatResponse struct {
	Reflection       string          `json:"reflection"`
	SessionID        string          `json:"session_id"`
	InteractionMode  Mode            `json:"interaction_mode,omitempty"`
	Emotion          *EmotionPayload `json:"emotion,omitempty"`
	Verses           []VersePayload  `json:"verses,omitempty"`
	Intent           string          `json:"intent,omitempty"`
	IntentConfidence *float64        `json:"intent_confidence,omitempty"`
	FallbackUsed     bool            `json:"fallback_used,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Reply converts the wire response into the client-side record.
func (r ChatResponse) Reply() Reply {
	reply := Reply{
		Text:         r.Reflection,
		SessionID:    r.SessionID,
		FallbackUsed: r.FallbackUsed,
	}
	if r.Emotion != nil {
		reply.Emotion = &Emotion{
			Label:      r.Emotion.Label,
			Confidence: clampUnit(r.Emotion.Confidence),
			Emoji:      r.Emotion.Emoji,
		}
	}
	if len(r.Verses) > 0 {
		reply.References = make([]Reference, 0, len(r.Verses))
		for _, v := range r.Verses {
			reply.References = append(reply.References, v.Reference())
		}
	}
	if r.Intent != "" {
		intent := &Intent{Label: r.Intent}
		if r.IntentConfidence != nil {
			intent.Confidence = clampUnit(*r.IntentConfidence)
		}
		reply.Intent = intent
	}
	return reply
}

// Reference converts a wire verse into a message reference.
func (v VersePayload) Reference() Reference {
	meaning := v.EngMeaning
	if meaning == "" {
		meaning = v.Meaning
	}
	ref := Reference{
		Chapter:         v.Chapter,
		Verse:           v.Verse,
		Text:            v.Shloka,
		Transliteration: v.Transliteration,
		Meaning:         meaning,
	}
	if v.SimilarityScore != nil {
		score := clampUnit(*v.SimilarityScore)
		ref.Score = &score
	}
	return ref
}

// NewChatResponse builds the wire response for a reply produced in mode.
func NewChatResponse(reply Reply, mode Mode, color string) ChatResponse {
	resp := ChatResponse{
		Reflection:      reply.Text,
		SessionID:       reply.SessionID,
		InteractionMode: mode,
		FallbackUsed:    reply.FallbackUsed,
	}
	if reply.Emotion != nil {
		resp.Emotion = &EmotionPayload{
			Label:      reply.Emotion.Label,
			Confidence: reply.Emotion.Confidence,
			Emoji:      reply.Emotion.Emoji,
			Color:      color,
		}
	}
	for _, ref := range reply.References {
		resp.Verses = append(resp.Verses, VersePayload{
			Chapter:         ref.Chapter,
			Verse:           ref.Verse,
			Shloka:          ref.Text,
			Transliteration: ref.Transliteration,
			EngMeaning:      ref.Meaning,
			SimilarityScore: ref.Score,
		})
	}
	if reply.Intent != nil {
		confidence := reply.Intent.Confidence
		resp.Intent = reply.Intent.Label
		resp.IntentConfidence = &confidence
	}
	return resp
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// CreateSessionRequest is the body of POST /conversations/sessions.
type CreateSessionRequest struct {
	InteractionMode Mode `json:"interaction_mode"`
}

// EndSessionRequest is the body of POST /conversations/{id}/end.
type EndSessionRequest struct {
	Summary string `json:"summary,omitempty"`
}

// SessionContext is the recent window of a session's transcript.
type SessionContext struct {
	SessionID  string    `json:"session_id"`
	WindowSize int       `json:"window_size"`
	Messages   []Message `json:"messages"`
}
