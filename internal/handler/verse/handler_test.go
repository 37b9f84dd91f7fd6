package verse

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/gitagpt/gitagpt/internal/model/chat"
	"github.com/gitagpt/gitagpt/internal/model/verse"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(verse.NewMemoryStore(verse.Seed())).RegisterRoutes(r)
	return r
}

func TestListVerses(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/verses", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var verses []verse.Verse
	if err := json.Unmarshal(resp.Body.Bytes(), &verses); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(verses) != len(verse.Seed()) {
		t.Fatalf("expected %d verses, got %d", len(verse.Seed()), len(verses))
	}
}

func TestGetVerse(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/verses/"+verse.FallbackID, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var v verse.Verse
	if err := json.Unmarshal(resp.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Chapter != 2 || v.Verse != 47 {
		t.Fatalf("unexpected verse %s", v.Ref())
	}
}

func TestGetVerseNotFound(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/verses/BG99.1", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestRandomVerse(t *testing.T) {
	h := New(verse.NewMemoryStore(verse.Seed()))
	h.pick = func(n int) int { return n - 1 }
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/verses/random", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var v verse.Verse
	if err := json.Unmarshal(resp.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	seed := verse.Seed()
	if want := seed[len(seed)-1].ID; v.ID != want {
		t.Fatalf("expected %s, got %s", want, v.ID)
	}
}

func TestRandomVerseEmptyCorpus(t *testing.T) {
	r := chi.NewRouter()
	New(verse.NewMemoryStore(nil)).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/verses/random", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestSearchVerses(t *testing.T) {
	body := `{"query":"I am afraid of failing my exams","emotion":"fear","top_k":2}`
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/verses/search", strings.NewReader(body)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body)
	}

	var got chat.VerseSearchResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Verses) == 0 || len(got.Verses) > 2 {
		t.Fatalf("expected 1 or 2 verses, got %d", len(got.Verses))
	}
	for i, v := range got.Verses {
		if v.SimilarityScore == nil || *v.SimilarityScore <= 0 {
			t.Fatalf("verse %d has no score", i)
		}
		if i > 0 && *v.SimilarityScore > *got.Verses[i-1].SimilarityScore {
			t.Fatalf("verses not ordered by score")
		}
	}
}

func TestSearchVersesEdgeCases(t *testing.T) {
	cases := []struct {
		name, body string
		want       int
		empty      bool
	}{
		{"no match", `{"query":"zzzz qqqq"}`, http.StatusOK, true},
		{"blank query", `{"query":"   "}`, http.StatusBadRequest, false},
		{"top_k too large", `{"query":"duty","top_k":50}`, http.StatusBadRequest, false},
		{"bad json", `{`, http.StatusBadRequest, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/verses/search", strings.NewReader(tc.body)))
			if resp.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.Code)
			}
			if tc.empty && !strings.Contains(resp.Body.String(), `"verses":[]`) {
				t.Fatalf("expected empty verses, got %s", resp.Body)
			}
		})
	}
}
