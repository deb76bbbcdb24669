package middleware_test

import (
	"context"
	"testing"

	"github.com/serroba/link-shortener/internal/analytics"
	"github.com/serroba/link-shortener/internal/middleware"
	"github.com/stretchr/testify/assert"
)

func TestRequestMeta(t *testing.T) {
	api := newAPI(t)
	api.UseMiddleware(middleware.RequestMeta(api))

	var got analytics.RequestMeta

	registerReader(api, "/meta", func(ctx context.Context) string {
		got = analytics.RequestMetaFromContext(ctx)

		return ""
	}, nil)

	resp := api.Get("/meta",
		"X-Forwarded-For: 203.0.113.9",
		"User-Agent: TestAgent/1.0",
		"Referer: https://referrer.example",
	)

	assert.Equal(t, 200, resp.Code)
	assert.Equal(t, analytics.RequestMeta{
		ClientIP:  "203.0.113.9",
		UserAgent: "TestAgent/1.0",
		Referrer:  "https://referrer.example",
	}, got)
}
