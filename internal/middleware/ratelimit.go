package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/link-shortener/internal/ratelimit"
	"go.uber.org/zap"
)

// PolicyRateLimiter returns a Huma middleware that applies policy-based rate limiting.
// The resolver picks the scopes for each request and every limit of those scopes
// is checked.
//
// Operations can carry a ratelimit.EndpointConfig under ratelimit.MetadataKey to:
//   - disable rate limiting (Disabled: true)
//   - override scope detection (Scope: ratelimit.ScopeRead)
//   - replace the policy with their own limits (Limits: []ratelimit.LimitConfig{...})
func PolicyRateLimiter(
	api huma.API,
	limiter *ratelimit.PolicyLimiter,
	resolver ratelimit.ScopeResolver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		path := operationPath(ctx)
		cfg := ratelimit.GetEndpointConfig(ctx)

		if cfg != nil && cfg.Disabled {
			next(ctx)

			return
		}

		var (
			exceeded *ratelimit.LimitExceeded
			err      error
		)

		if cfg != nil && len(cfg.Limits) > 0 {
			exceeded, err = limiter.AllowRoute(ctx.Context(), clientKey(ctx), path, cfg.Limits)
		} else {
			exceeded, err = limiter.Allow(ctx.Context(), clientKey(ctx), resolver.Resolve(ctx))
		}

		if err != nil {
			logger.Error("rate limit check failed", zap.String("path", path), zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusServiceUnavailable, "rate limiter unavailable")

			return
		}

		if exceeded != nil {
			logger.Warn("rate limit exceeded",
				zap.String("path", path),
				zap.String("method", ctx.Method()),
				zap.String("scope", string(exceeded.Scope)),
				zap.Int64("count", exceeded.Count),
				zap.Int64("max", exceeded.Config.Max),
				zap.Duration("window", exceeded.Config.Window),
				zap.String("client_ip", ClientIP(ctx)),
			)

			ctx.SetHeader("Retry-After", retryAfter(exceeded))
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests,
				fmt.Sprintf("rate limit exceeded: %s scope, %d/%d requests in %s",
					exceeded.Scope, exceeded.Count, exceeded.Config.Max, exceeded.Config.Window))

			return
		}

		next(ctx)
	}
}

// operationPath returns the route template, e.g. "/{code}".
func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ctx.URL().Path
}

func retryAfter(exceeded *ratelimit.LimitExceeded) string {
	return strconv.Itoa(int(math.Ceil(exceeded.Config.Window.Seconds())))
}
