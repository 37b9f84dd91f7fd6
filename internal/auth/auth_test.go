package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("user=" + UserFrom(r.Context())))
	})
}

func TestOptional(t *testing.T) {
	v := NewVerifier(map[string]string{"tok": "alice"})
	h := v.Optional(echoUser())

	tests := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{name: "anonymous", header: "", code: http.StatusOK, body: "user="},
		{name: "valid", header: "Bearer tok", code: http.StatusOK, body: "user=alice"},
		{name: "lowercase scheme", header: "bearer tok", code: http.StatusOK, body: "user=alice"},
		{name: "invalid", header: "Bearer nope", code: http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.code, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestRequired(t *testing.T) {
	v := NewVerifier(map[string]string{"tok": "alice"})
	h := v.Required(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"authentication required"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "user=alice", rec.Body.String())
}
