package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminAuthMiddleware(t *testing.T) {
	var seen *Claims
	h := AdminAuthMiddleware("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("Valid token", func(t *testing.T) {
		token, err := IssueToken([]byte("secret"), 4, "admin@example.com", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, serve("Bearer "+token))
		require.NotNil(t, seen)
		assert.Equal(t, 4, seen.AdminID)
	})

	t.Run("Missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(""))
	})

	t.Run("Wrong secret", func(t *testing.T) {
		token, err := IssueToken([]byte("other"), 4, "admin@example.com", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, serve("Bearer "+token))
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := IssueToken([]byte("secret"), 4, "admin@example.com", -time.Minute)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, serve("Bearer "+token))
	})
}
