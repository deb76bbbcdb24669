package middleware

import (
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/link-shortener/internal/apierror"
	"github.com/serroba/link-shortener/internal/auth"
)

// BearerAuth validates "Authorization: Bearer <token>" and stores the user id
// in the request context. A present but invalid token is always rejected; a
// missing token is rejected only when required is true.
func BearerAuth(
	api huma.API, issuer *auth.TokenIssuer, required bool,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token, ok := bearerToken(ctx.Header("Authorization"))
		if !ok {
			if required {
				unauthorized(api, ctx, "Authentication required")

				return
			}

			next(ctx)

			return
		}

		userID, err := issuer.Validate(token)
		if err != nil {
			unauthorized(api, ctx, "Invalid or expired token")

			return
		}

		next(huma.WithContext(ctx, auth.ContextWithUserID(ctx.Context(), userID)))
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

func unauthorized(api huma.API, ctx huma.Context, msg string) {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.SetHeader("WWW-Authenticate", "Bearer")
	ctx.SetStatus(http.StatusUnauthorized)
	_ = api.Marshal(ctx.BodyWriter(), "application/json", apierror.Message(http.StatusUnauthorized, msg))
}
