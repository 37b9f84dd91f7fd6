package verse

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/gitagpt/gitagpt/internal/model/verse"
)

// ErrNoMatch is returned when no verse scores above zero.
var ErrNoMatch = errors.New("no matching verses")

const (
	keywordWeight = 0.15
	emotionWeight = 0.3
	baseScore     = 0.4
	maxScore      = 0.99
	fallbackScore = 0.5
)

// Match is a retrieved verse with its similarity score in [0,1].
type Match struct {
	Verse verse.Verse
	Score float64
}

// Retriever ranks corpus verses against a query.
type Retriever struct {
	store verse.Store
}

// NewRetriever builds a retriever over store.
func NewRetriever(store verse.Store) *Retriever {
	return &Retriever{store: store}
}

// Search returns up to topK verses ordered by score. emotion may be empty.
func (r *Retriever) Search(ctx context.Context, query, emotion string, topK int) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 3
	}

	normalized := strings.ToLower(query)
	emotion = strings.ToLower(strings.TrimSpace(emotion))

	var matches []Match
	for _, v := range r.store.List() {
		hits := 0
		for _, kw := range v.Keywords {
			if strings.Contains(normalized, kw) {
				hits++
			}
		}
		emotionHit := emotion != "" && containsString(v.Emotions, emotion)
		if hits == 0 && !emotionHit {
			continue
		}

		score := baseScore + keywordWeight*float64(hits)
		if emotionHit {
			score += emotionWeight
		}
		matches = append(matches, Match{Verse: v, Score: math.Min(maxScore, score)})
	}

	if len(matches) == 0 {
		return nil, ErrNoMatch
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Fallback returns the default verse used when Search yields nothing.
func (r *Retriever) Fallback() (Match, bool) {
	v, ok := r.store.FindByID(verse.FallbackID)
	if !ok {
		return Match{}, false
	}
	return Match{Verse: v, Score: fallbackScore}, true
}

// Count reports the corpus size.
func (r *Retriever) Count() int {
	return len(r.store.List())
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
