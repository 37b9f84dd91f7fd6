package verse

import (
	"errors"
	"math/rand/v2"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gitagpt/gitagpt/internal/model/chat"
	"github.com/gitagpt/gitagpt/internal/model/verse"
	verseservice "github.com/gitagpt/gitagpt/internal/service/verse"
	"github.com/gitagpt/gitagpt/pkg/utils"
)

const (
	defaultSearchTopK = 5
	maxSearchTopK     = 20
)

// Handler serves the built-in verse corpus.
type Handler struct {
	verses    verse.Store
	retriever *verseservice.Retriever
	pick      func(n int) int
}

// New creates the verse handler.
func New(verses verse.Store) *Handler {
	return &Handler{
		verses:    verses,
		retriever: verseservice.NewRetriever(verses),
		pick:      rand.IntN,
	}
}

// RegisterRoutes mounts the verse routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/verses", h.handleList)
	r.Get("/verses/random", h.handleRandom)
	r.Post("/verses/search", h.handleSearch)
	r.Get("/verses/{verseID}", h.handleGet)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.verses.List())
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	v, ok := h.verses.FindByID(chi.URLParam(r, "verseID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "Verse not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, v)
}

func (h *Handler) handleRandom(w http.ResponseWriter, r *http.Request) {
	all := h.verses.List()
	if len(all) == 0 {
		utils.RespondError(w, http.StatusNotFound, "Verse not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, all[h.pick(len(all))])
}

// handleSearch ranks the corpus against the query. No match is an empty
// list, not an error.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req chat.VerseSearchRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		utils.RespondError(w, http.StatusBadRequest, "query must not be empty")
		return
	}
	if req.TopK == 0 {
		req.TopK = defaultSearchTopK
	}
	if req.TopK < 1 || req.TopK > maxSearchTopK {
		utils.RespondError(w, http.StatusBadRequest, "top_k must be between 1 and 20")
		return
	}

	matches, err := h.retriever.Search(r.Context(), req.Query, req.Emotion, req.TopK)
	if err != nil && !errors.Is(err, verseservice.ErrNoMatch) {
		utils.RespondError(w, http.StatusInternalServerError, "Failed to search verses")
		return
	}

	resp := chat.VerseSearchResponse{Query: req.Query, Verses: make([]chat.VersePayload, 0, len(matches))}
	for _, m := range matches {
		score := m.Score
		resp.Verses = append(resp.Verses, chat.VersePayload{
			ID:              m.Verse.ID,
			Chapter:         m.Verse.Chapter,
			Verse:           m.Verse.Verse,
			Shloka:          m.Verse.Shloka,
			Transliteration: m.Verse.Transliteration,
			EngMeaning:      m.Verse.EngMeaning,
			SimilarityScore: &score,
		})
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}
