package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/link-shortener/internal/apierror"
	"github.com/serroba/link-shortener/internal/ratelimit"
)

// RegisterAuthRoutes registers signup and login.
func RegisterAuthRoutes(api huma.API, authHandler *AuthHandler) {
	apierror.Install()

	huma.Register(api, huma.Operation{
		OperationID:   "signup",
		Method:        http.MethodPost,
		Path:          "/api/signup",
		Summary:       "Create account",
		Description:   "Registers a user and returns a bearer token.",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusCreated,
		Metadata: map[string]any{
			apierror.MetadataKey:  apierror.EnvelopeFailure,
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Hour, Max: 20},
				},
			},
		},
	}, authHandler.Signup)

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/login",
		Summary:     "Log in",
		Description: "Verifies credentials and returns a bearer token.",
		Tags:        []string{"Auth"},
		Metadata: map[string]any{
			apierror.MetadataKey:  apierror.EnvelopeFailure,
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeWrite},
		},
	}, authHandler.Login)
}

// RegisterURLRoutes registers the URL shortener routes. authMiddleware guards
// shortening and may be nil.
func RegisterURLRoutes(api huma.API, urlHandler *URLHandler, authMiddleware func(huma.Context, func(huma.Context))) {
	apierror.Install()

	var shortenMiddlewares huma.Middlewares
	if authMiddleware != nil {
		shortenMiddlewares = huma.Middlewares{authMiddleware}
	}

	huma.Register(api, huma.Operation{
		OperationID: "shorten",
		Method:      http.MethodPost,
		Path:        "/api/shorten",
		Summary:     "Create short URL",
		Description: "Creates a shortened URL using the specified strategy (token or hash).",
		Tags:        []string{"URLs"},
		Middlewares: shortenMiddlewares,
		Metadata: map[string]any{
			apierror.MetadataKey:  apierror.EnvelopeError,
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 10},
					{Window: time.Hour, Max: 100},
					{Window: 24 * time.Hour, Max: 500},
				},
			},
		},
	}, urlHandler.CreateShortURL)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to original URL",
		Description: "Redirects with 301 for permanent links and 302 for expiring ones.",
		Tags:        []string{"URLs"},
		Metadata: map[string]any{
			apierror.MetadataKey:  apierror.EnvelopeError,
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 1000},
				},
			},
		},
	}, urlHandler.RedirectToURL)
}

// RegisterStatsRoutes registers the click counter lookup.
func RegisterStatsRoutes(api huma.API, statsHandler *StatsHandler) {
	apierror.Install()

	huma.Register(api, huma.Operation{
		OperationID: "stats",
		Method:      http.MethodGet,
		Path:        "/api/stats/{code}",
		Summary:     "Get short URL stats",
		Description: "Returns issue, click and expired-hit counters for a short code.",
		Tags:        []string{"URLs"},
		Metadata: map[string]any{
			apierror.MetadataKey:  apierror.EnvelopeError,
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeRead},
		},
	}, statsHandler.GetStats)
}
