package chat

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitagpt/gitagpt/internal/model/chat"
)

type sseEvent struct {
	name string
	data string
}

func readEvents(t *testing.T, body string) []sseEvent {
	t.Helper()
	var (
		events []sseEvent
		cur    sseEvent
	)
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			events = append(events, cur)
			cur = sseEvent{}
		}
	}
	require.NoError(t, sc.Err())
	return events
}

func postStream(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat/stream", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestStreamEmitsStagedEvents(t *testing.T) {
	r, _ := setupRouter(t)

	resp := postStream(r, `{"user_input":"I feel anxious about my exams","interaction_mode":"story"}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "text/event-stream", resp.Header().Get("Content-Type"))

	events := readEvents(t, resp.Body.String())
	require.GreaterOrEqual(t, len(events), 3)
	assert.Equal(t, "session", events[0].name)
	last := events[len(events)-1]
	require.Equal(t, "end", last.name)

	var final chat.ChatResponse
	require.NoError(t, json.Unmarshal([]byte(last.data), &final))
	assert.Equal(t, chat.ModeStory, final.InteractionMode)

	var (
		text  strings.Builder
		names []string
	)
	for _, ev := range events {
		names = append(names, ev.name)
		if ev.name != "delta" {
			continue
		}
		var delta StreamEvent
		require.NoError(t, json.Unmarshal([]byte(ev.data), &delta))
		assert.Equal(t, final.SessionID, delta.SessionID)
		text.WriteString(delta.Content)
	}
	assert.Equal(t, final.Reflection, text.String())
	assert.Contains(t, names, "emotion")
}

func TestStreamValidationIsPlainJSON(t *testing.T) {
	r, _ := setupRouter(t)

	resp := postStream(r, `{"user_input":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.JSONEq(t, `{"detail":"user_input must not be empty"}`, resp.Body.String())
}

func TestChunkWords(t *testing.T) {
	cases := []struct {
		text string
		n    int
		want []string
	}{
		{"", 3, nil},
		{"one", 3, []string{"one"}},
		{"a b c d e", 2, []string{"a b ", "c d ", "e"}},
		{"  lead\nand trail  ", 1, []string{"  lead\n", "and ", "trail  "}},
	}
	for _, tc := range cases {
		got := chunkWords(tc.text, tc.n)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("chunkWords(%q, %d) mismatch (-want +got):\n%s", tc.text, tc.n, diff)
		}
		assert.Equal(t, tc.text, strings.Join(got, ""))
	}
}
