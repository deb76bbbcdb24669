package handlers_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shortenBody struct {
	Code        string     `json:"code"`
	ShortURL    string     `json:"short_url"`
	OriginalURL string     `json:"original_url"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

func (s *testServer) shorten(t *testing.T, body map[string]any, headers ...any) shortenBody {
	t.Helper()

	resp := s.api.Post("/api/shorten", append(headers, body)...)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out shortenBody
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, out.ShortURL, resp.Header().Get("Location"))

	return out
}

func TestCreateShortURL(t *testing.T) {
	t.Run("creates a permanent short url", func(t *testing.T) {
		srv := newTestServer(t)

		out := srv.shorten(t, map[string]any{"url": "https://example.com/very/long/path"})

		assert.Len(t, out.Code, 6)
		assert.Equal(t, baseURL+"/"+out.Code, out.ShortURL)
		assert.Equal(t, "https://example.com/very/long/path", out.OriginalURL)
		assert.Nil(t, out.ExpiresAt)
		assert.True(t, out.CreatedAt.Equal(srv.clock.Now()))
	})

	t.Run("sets expiry from expires_in_days", func(t *testing.T) {
		srv := newTestServer(t)

		out := srv.shorten(t, map[string]any{"url": "https://example.com", "expires_in_days": 7})

		require.NotNil(t, out.ExpiresAt)
		assert.True(t, out.ExpiresAt.Equal(srv.clock.Now().Add(7*24*time.Hour)))
	})

	t.Run("non-positive expires_in_days means no expiry", func(t *testing.T) {
		srv := newTestServer(t)

		for _, days := range []int{0, -3} {
			out := srv.shorten(t, map[string]any{"url": "https://example.com", "expires_in_days": days})

			assert.Nil(t, out.ExpiresAt)
		}
	})

	t.Run("rejects invalid urls with the error envelope", func(t *testing.T) {
		srv := newTestServer(t)

		for _, raw := range []string{"not a url", "ftp://example.com/file", "/relative/path", "https://"} {
			resp := srv.api.Post("/api/shorten", map[string]any{"url": raw})

			assert.Equal(t, http.StatusBadRequest, resp.Code, raw)
			assert.JSONEq(t, `{"error":"invalid url: must be an absolute http or https URL"}`, resp.Body.String())
		}
	})

	t.Run("rejects a missing url", func(t *testing.T) {
		srv := newTestServer(t)

		resp := srv.api.Post("/api/shorten", map[string]any{})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.JSONEq(t, `{"error":"url is required"}`, resp.Body.String())
	})

	t.Run("malformed bodies use the error envelope", func(t *testing.T) {
		srv := newTestServer(t)

		for name, args := range map[string][]any{
			"numeric url":   {map[string]any{"url": 123}},
			"string expiry": {map[string]any{"url": "https://example.com", "expires_in_days": "7"}},
			"not json":      {"Content-Type: application/json", strings.NewReader("url=https://example.com")},
		} {
			resp := srv.api.Post("/api/shorten", args...)

			assert.Equal(t, http.StatusBadRequest, resp.Code, name)

			var body map[string]string
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body), name)
			assert.NotEmpty(t, body["error"], name)
			assert.Len(t, body, 1, name)
		}
	})

	t.Run("rejects an unknown strategy", func(t *testing.T) {
		srv := newTestServer(t)

		resp := srv.api.Post("/api/shorten", map[string]any{"url": "https://example.com", "strategy": "random"})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), `"error"`)
	})

	t.Run("rejects an absurd expiry", func(t *testing.T) {
		srv := newTestServer(t)

		resp := srv.api.Post("/api/shorten", map[string]any{"url": "https://example.com", "expires_in_days": 1_000_000})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("token strategy issues a new code every time", func(t *testing.T) {
		srv := newTestServer(t)

		first := srv.shorten(t, map[string]any{"url": "https://example.com"})
		second := srv.shorten(t, map[string]any{"url": "https://example.com"})

		assert.NotEqual(t, first.Code, second.Code)
	})

	t.Run("hash strategy reuses the code for equivalent urls", func(t *testing.T) {
		srv := newTestServer(t)

		first := srv.shorten(t, map[string]any{"url": "https://Example.com/path", "strategy": "hash"})
		second := srv.shorten(t, map[string]any{"url": "https://example.com/path", "strategy": "hash"})

		assert.Equal(t, first.Code, second.Code)
	})

	t.Run("storage faults are unavailable", func(t *testing.T) {
		srv := newTestServer(t, withRepo(brokenRepo{}))

		resp := srv.api.Post("/api/shorten", map[string]any{"url": "https://example.com"})

		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
		assert.JSONEq(t, `{"error":"service unavailable"}`, resp.Body.String())
	})

	t.Run("publishes a created event with the caller", func(t *testing.T) {
		srv := newTestServer(t)

		token, err := srv.tokens.Issue("alice")
		require.NoError(t, err)

		out := srv.shorten(t, map[string]any{"url": "https://example.com", "expires_in_days": 1},
			"Authorization: Bearer "+token, "User-Agent: TestAgent/1.0")

		require.Len(t, srv.events.created, 1)

		event := srv.events.created[0]
		assert.Equal(t, out.Code, event.Code)
		assert.Equal(t, "token", event.Strategy)
		assert.Equal(t, "alice", event.CreatedBy)
		assert.Equal(t, "TestAgent/1.0", event.UserAgent)
		require.NotNil(t, event.ExpiresAt)
	})

	t.Run("works without publishers", func(t *testing.T) {
		srv := newTestServer(t, withoutPublishers())

		srv.shorten(t, map[string]any{"url": "https://example.com"})
	})

	t.Run("concurrent requests get distinct codes", func(t *testing.T) {
		srv := newTestServer(t)

		const n = 50

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			codes = make(map[string]bool, n)
		)

		for range n {
			wg.Add(1)

			go func() {
				defer wg.Done()

				resp := srv.api.Post("/api/shorten", map[string]any{"url": "https://example.com"})

				var out shortenBody
				if json.Unmarshal(resp.Body.Bytes(), &out) == nil && resp.Code == http.StatusOK {
					mu.Lock()
					codes[out.Code] = true
					mu.Unlock()
				}
			}()
		}

		wg.Wait()

		assert.Len(t, codes, n)
	})
}

func TestCreateShortURL_RequiredAuth(t *testing.T) {
	srv := newTestServer(t, withRequiredAuth())

	t.Run("rejects anonymous requests", func(t *testing.T) {
		resp := srv.api.Post("/api/shorten", map[string]any{"url": "https://example.com"})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.JSONEq(t, `{"message":"Authentication required"}`, resp.Body.String())
	})

	t.Run("accepts a valid token", func(t *testing.T) {
		token, err := srv.tokens.Issue("alice")
		require.NoError(t, err)

		srv.shorten(t, map[string]any{"url": "https://example.com"}, "Authorization: Bearer "+token)
	})

	t.Run("redirects stay public", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, srv.api.Get("/nothere").Code)
	})
}

func TestRedirectToURL(t *testing.T) {
	t.Run("permanent links redirect with 301", func(t *testing.T) {
		srv := newTestServer(t)
		out := srv.shorten(t, map[string]any{"url": "https://example.com/a"})

		resp := srv.api.Get("/" + out.Code)

		assert.Equal(t, http.StatusMovedPermanently, resp.Code)
		assert.Equal(t, "https://example.com/a", resp.Header().Get("Location"))
	})

	t.Run("expiring links redirect with 302 until they expire", func(t *testing.T) {
		srv := newTestServer(t)
		out := srv.shorten(t, map[string]any{"url": "https://example.com/b", "expires_in_days": 1})

		srv.clock.Advance(23 * time.Hour)

		resp := srv.api.Get("/" + out.Code)
		assert.Equal(t, http.StatusFound, resp.Code)
		assert.Equal(t, "https://example.com/b", resp.Header().Get("Location"))

		srv.clock.Advance(2 * time.Hour)

		resp = srv.api.Get("/" + out.Code)
		assert.Equal(t, http.StatusGone, resp.Code)
		assert.Empty(t, resp.Header().Get("Location"))
	})

	t.Run("expiry is exclusive at the boundary", func(t *testing.T) {
		srv := newTestServer(t)
		out := srv.shorten(t, map[string]any{"url": "https://example.com/c", "expires_in_days": 1})

		srv.clock.Advance(24 * time.Hour)

		assert.Equal(t, http.StatusGone, srv.api.Get("/"+out.Code).Code)
	})

	t.Run("unknown codes are 404", func(t *testing.T) {
		srv := newTestServer(t)

		resp := srv.api.Get("/zzzzzz")

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.JSONEq(t, `{"error":"short url not found"}`, resp.Body.String())
	})

	t.Run("storage faults are unavailable", func(t *testing.T) {
		srv := newTestServer(t, withRepo(brokenRepo{}))

		assert.Equal(t, http.StatusServiceUnavailable, srv.api.Get("/abc123").Code)
	})

	t.Run("publishes an access event per outcome", func(t *testing.T) {
		srv := newTestServer(t)
		out := srv.shorten(t, map[string]any{"url": "https://example.com", "expires_in_days": 1})

		srv.api.Get("/"+out.Code, "Referer: https://ref.example")
		srv.api.Get("/missing")
		srv.clock.Advance(48 * time.Hour)
		srv.api.Get("/" + out.Code)

		var outcomes []string
		for _, event := range srv.events.accessed {
			outcomes = append(outcomes, event.Outcome)
		}

		assert.Equal(t, []string{"redirect", "not_found", "expired"}, outcomes)
		assert.Equal(t, "https://ref.example", srv.events.accessed[0].Referrer)
		assert.True(t, strings.HasPrefix(srv.events.accessed[0].ClientIP, "192.0.2."))
	})
}
