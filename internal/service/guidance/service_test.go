package guidance

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitagpt/gitagpt/internal/model/chat"
	"github.com/gitagpt/gitagpt/internal/model/verse"
	"github.com/gitagpt/gitagpt/internal/service/ai"
	chatstore "github.com/gitagpt/gitagpt/internal/service/chat"
	emotionservice "github.com/gitagpt/gitagpt/internal/service/emotion"
	verseservice "github.com/gitagpt/gitagpt/internal/service/verse"
)

type stubGenerator struct {
	name  string
	reply string
	err   error
	calls int
	last  ai.Input
}

func (g *stubGenerator) Name() string { return g.name }

func (g *stubGenerator) Generate(_ context.Context, in ai.Input) (string, error) {
	g.calls++
	g.last = in
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func newTestService(t *testing.T, generators ...ai.Generator) (*Service, *chatstore.MemoryStore) {
	t.Helper()
	emotions, err := emotionservice.NewService(context.Background(), nil, emotionservice.Config{}, nil)
	require.NoError(t, err)

	store := chatstore.NewMemoryStore()
	retriever := verseservice.NewRetriever(verse.NewMemoryStore(verse.Seed()))
	return NewService(emotions, retriever, generators, store, Config{MaxInputLength: 50}, nil), store
}

func TestRespondEmotionalQuery(t *testing.T) {
	gen := &stubGenerator{name: "stub", reply: "Beloved one, the soul is eternal."}
	svc, store := newTestService(t, gen)

	resp, err := svc.Respond(context.Background(), Input{UserInput: "I feel lost since my father died", Mode: "story"})
	require.NoError(t, err)

	assert.Equal(t, "Beloved one, the soul is eternal.", resp.Reflection)
	assert.Equal(t, chat.ModeStory, resp.InteractionMode)
	assert.Equal(t, "emotional_query", resp.Intent)
	require.NotNil(t, resp.Emotion)
	assert.NotEqual(t, "neutral", resp.Emotion.Label)
	assert.NotEmpty(t, resp.Emotion.Color)
	require.NotEmpty(t, resp.Verses)
	assert.NotEmpty(t, resp.Verses[0].ID)
	assert.False(t, resp.FallbackUsed)

	_, err = uuid.Parse(resp.SessionID)
	require.NoError(t, err)

	transcript, err := store.LoadTranscript(context.Background(), resp.SessionID)
	require.NoError(t, err)
	require.Len(t, transcript, 2)
	assert.Equal(t, chat.RoleUser, transcript[0].Role)
	assert.Equal(t, chat.RoleAssistant, transcript[1].Role)
	assert.NotNil(t, transcript[1].Emotion)

	assert.Equal(t, chat.ModeStory, gen.last.Mode)
	assert.NotEmpty(t, gen.last.Verses)
}

func TestRespondCasualUsesTemplateWithoutModels(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Respond(context.Background(), Input{UserInput: "Hello!", Mode: ""})
	require.NoError(t, err)

	assert.Equal(t, "casual_chat", resp.Intent)
	assert.Equal(t, chat.ModeWisdom, resp.InteractionMode)
	assert.Nil(t, resp.Emotion)
	assert.Empty(t, resp.Verses)
	assert.True(t, resp.FallbackUsed)
	assert.Contains(t, resp.Reflection, "Namaste")
}

func TestRespondFallsThroughGenerators(t *testing.T) {
	failing := &stubGenerator{name: "ark", err: errors.New("quota exceeded")}
	working := &stubGenerator{name: "gemini", reply: "From the second model."}
	svc, _ := newTestService(t, failing, working)

	resp, err := svc.Respond(context.Background(), Input{UserInput: "What does Krishna teach about dharma?"})
	require.NoError(t, err)

	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, working.calls)
	assert.Equal(t, "From the second model.", resp.Reflection)
	assert.Equal(t, "spiritual_guidance", resp.Intent)
	assert.Nil(t, resp.Emotion)
}

func TestRespondUsesFallbackVerse(t *testing.T) {
	gen := &stubGenerator{name: "stub", reply: "ok"}
	svc, _ := newTestService(t, gen)

	resp, err := svc.Respond(context.Background(), Input{UserInput: "I feel something"})
	require.NoError(t, err)

	require.Len(t, resp.Verses, 1)
	assert.Equal(t, verse.FallbackID, resp.Verses[0].ID)
	require.NotNil(t, resp.Verses[0].SimilarityScore)
	assert.Equal(t, 0.5, *resp.Verses[0].SimilarityScore)
	assert.True(t, resp.FallbackUsed)
}

func TestRespondContinuesSession(t *testing.T) {
	gen := &stubGenerator{name: "stub", reply: "ok"}
	svc, store := newTestService(t, gen)
	ctx := context.Background()

	first, err := svc.Respond(ctx, Input{UserInput: "hello", UserID: "alice"})
	require.NoError(t, err)
	_, err = svc.Respond(ctx, Input{UserInput: "thanks", SessionID: first.SessionID, UserID: "alice"})
	require.NoError(t, err)

	assert.Len(t, gen.last.History, 2)
	transcript, err := store.LoadTranscript(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Len(t, transcript, 4)

	_, err = svc.Respond(ctx, Input{UserInput: "hi", SessionID: first.SessionID, UserID: "bob"})
	assert.ErrorIs(t, err, chatstore.ErrSessionForbidden)
}

func TestRespondValidation(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name string
		in   Input
		want string
	}{
		{name: "empty", in: Input{UserInput: "   "}, want: "must not be empty"},
		{name: "too long", in: Input{UserInput: strings.Repeat("a", 51)}, want: "at most 50"},
		{name: "bad mode", in: Input{UserInput: "hi", Mode: "lecture"}, want: "Invalid interaction mode"},
		{name: "bad session", in: Input{UserInput: "hi", SessionID: "not-a-uuid"}, want: "valid UUID"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Respond(context.Background(), tc.in)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestHealth(t *testing.T) {
	degraded, _ := newTestService(t)
	report := degraded.Health(context.Background())
	assert.Equal(t, "degraded", report.Status)
	assert.Equal(t, "healthy", report.Services["store"].Status)
	assert.Equal(t, "unhealthy", report.Services["language_model"].Status)

	healthy, _ := newTestService(t, &stubGenerator{name: "stub", reply: "ok"})
	report = healthy.Health(context.Background())
	assert.Equal(t, "healthy", report.Status)
	for name, component := range report.Services {
		assert.Equal(t, "healthy", component.Status, name)
	}
}
