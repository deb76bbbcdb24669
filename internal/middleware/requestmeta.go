package middleware

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/link-shortener/internal/analytics"
)

// RequestMeta stores client IP, user-agent and referrer in the request context
// for analytics events.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := analytics.RequestMeta{
			ClientIP:  ClientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
		}

		next(huma.WithContext(ctx, analytics.WithRequestMeta(ctx.Context(), meta)))
	}
}
