package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gitagpt/gitagpt/pkg/utils"
)

var (
	ErrMissingToken = errors.New("authentication required")
	ErrInvalidToken = errors.New("invalid authentication credentials")
)

// Verifier resolves bearer tokens to user ids.
type Verifier struct {
	tokens map[string]string
}

// NewVerifier builds a verifier over a token to user map.
func NewVerifier(tokens map[string]string) *Verifier {
	copied := make(map[string]string, len(tokens))
	for token, user := range tokens {
		copied[token] = user
	}
	return &Verifier{tokens: copied}
}

// Verify returns the user for token.
func (v *Verifier) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	user, ok := v.tokens[token]
	if !ok {
		return "", ErrInvalidToken
	}
	return user, nil
}

type contextKey struct{}

// WithUser stores the authenticated user id in ctx.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserFrom returns the authenticated user id, or "" for anonymous requests.
func UserFrom(ctx context.Context) string {
	user, _ := ctx.Value(contextKey{}).(string)
	return user
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Optional admits anonymous requests but rejects a present, invalid token.
func (v *Verifier) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := v.Verify(token)
		if err != nil {
			utils.RespondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// Required rejects requests without a valid token.
func (v *Verifier) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := v.Verify(BearerToken(r))
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			utils.RespondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}
