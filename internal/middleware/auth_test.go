package middleware_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/serroba/link-shortener/internal/auth"
	"github.com/serroba/link-shortener/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextUserID(ctx context.Context) string {
	userID, _ := auth.UserIDFromContext(ctx)

	return userID
}

func newIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()

	issuer, err := auth.NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"), "link-shortener", time.Hour)
	require.NoError(t, err)

	return issuer
}

func TestBearerAuth(t *testing.T) {
	issuer := newIssuer(t)

	token, err := issuer.Issue("alice")
	require.NoError(t, err)

	t.Run("valid token sets the user id", func(t *testing.T) {
		api := newAPI(t)
		api.UseMiddleware(middleware.BearerAuth(api, issuer, true))
		registerReader(api, "/me", contextUserID, nil)

		resp := api.Get("/me", "Authorization: Bearer "+token)

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"value":"alice"`)
	})

	t.Run("missing token passes through when optional", func(t *testing.T) {
		api := newAPI(t)
		api.UseMiddleware(middleware.BearerAuth(api, issuer, false))
		registerReader(api, "/me", contextUserID, nil)

		resp := api.Get("/me")

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"value":""`)
	})

	t.Run("missing token is rejected when required", func(t *testing.T) {
		api := newAPI(t)
		api.UseMiddleware(middleware.BearerAuth(api, issuer, true))
		registerReader(api, "/me", contextUserID, nil)

		resp := api.Get("/me")

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.JSONEq(t, `{"message":"Authentication required"}`, resp.Body.String())
		assert.Equal(t, "Bearer", resp.Header().Get("WWW-Authenticate"))
	})

	t.Run("invalid token is rejected even when optional", func(t *testing.T) {
		api := newAPI(t)
		api.UseMiddleware(middleware.BearerAuth(api, issuer, false))
		registerReader(api, "/me", contextUserID, nil)

		resp := api.Get("/me", "Authorization: Bearer not-a-jwt")

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.JSONEq(t, `{"message":"Invalid or expired token"}`, resp.Body.String())
	})

	t.Run("non bearer schemes are treated as missing", func(t *testing.T) {
		api := newAPI(t)
		api.UseMiddleware(middleware.BearerAuth(api, issuer, true))
		registerReader(api, "/me", contextUserID, nil)

		resp := api.Get("/me", "Authorization: Basic YWxpY2U6c2VjcmV0")

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}
