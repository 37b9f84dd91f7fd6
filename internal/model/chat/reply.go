package chat

// Reply is what one exchange with the chat backend yields. Every optional
// part is nil when the backend did not send it.
type Reply struct {
	Text         string
	SessionID    string
	Emotion      *Emotion
	References   []Reference
	Intent       *Intent
	FallbackUsed bool
}

// HasEmotion reports whether an emotion classification was returned.
func (r Reply) HasEmotion() bool { return r.Emotion != nil }

// HasReferences reports whether any verses were returned.
func (r Reply) HasReferences() bool { return len(r.References) > 0 }

// HasIntent reports whether an intent classification was returned.
func (r Reply) HasIntent() bool { return r.Intent != nil }
