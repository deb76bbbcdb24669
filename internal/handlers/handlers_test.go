package handlers_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/serroba/link-shortener/internal/accounts"
	"github.com/serroba/link-shortener/internal/analytics"
	"github.com/serroba/link-shortener/internal/auth"
	"github.com/serroba/link-shortener/internal/handlers"
	"github.com/serroba/link-shortener/internal/middleware"
	"github.com/serroba/link-shortener/internal/shortener"
	"github.com/serroba/link-shortener/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const baseURL = "http://sho.rt"

var errBackend = errors.New("backend down")

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// events records published analytics events.
type events struct {
	mu       sync.Mutex
	created  []*analytics.URLCreatedEvent
	accessed []*analytics.URLAccessedEvent
}

func (e *events) publishers() *analytics.Publishers {
	return &analytics.Publishers{
		URLCreated: func(_ context.Context, event *analytics.URLCreatedEvent) error {
			e.mu.Lock()
			defer e.mu.Unlock()

			e.created = append(e.created, event)

			return nil
		},
		URLAccessed: func(_ context.Context, event *analytics.URLAccessedEvent) error {
			e.mu.Lock()
			defer e.mu.Unlock()

			e.accessed = append(e.accessed, event)

			return nil
		},
	}
}

type brokenRepo struct{}

func (brokenRepo) Insert(context.Context, *shortener.ShortURL) error { return errBackend }

func (brokenRepo) GetByCode(context.Context, shortener.Code) (*shortener.ShortURL, error) {
	return nil, errBackend
}

func (brokenRepo) GetByHash(context.Context, shortener.URLHash) (*shortener.ShortURL, error) {
	return nil, errBackend
}

type testServer struct {
	api    humatest.TestAPI
	clock  *clock
	events *events
	tokens *auth.TokenIssuer
}

type serverOption func(*serverConfig)

type serverConfig struct {
	repo        shortener.Repository
	requireAuth bool
	attempts    handlers.AttemptLimiter
	publishers  func(*events) *analytics.Publishers
}

func withRepo(repo shortener.Repository) serverOption {
	return func(c *serverConfig) { c.repo = repo }
}

func withRequiredAuth() serverOption {
	return func(c *serverConfig) { c.requireAuth = true }
}

func withAttemptLimiter(limiter handlers.AttemptLimiter) serverOption {
	return func(c *serverConfig) { c.attempts = limiter }
}

func withoutPublishers() serverOption {
	return func(c *serverConfig) {
		c.publishers = func(*events) *analytics.Publishers { return nil }
	}
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	cfg := &serverConfig{
		repo:       store.NewMemoryStore(),
		publishers: (*events).publishers,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	c := &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	recorded := &events{}

	generate, err := shortener.NewCodeGenerator(shortener.DefaultCodeLength)
	require.NoError(t, err)

	urlStore := shortener.NewStore(cfg.repo, generate, shortener.WithClock(c.Now))
	strategies := map[handlers.Strategy]shortener.Strategy{
		handlers.StrategyToken: shortener.NewTokenStrategy(urlStore),
		handlers.StrategyHash:  shortener.NewHashStrategy(urlStore),
	}

	service, err := accounts.NewService(store.NewAccountMemoryStore(),
		accounts.WithParams(accounts.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}))
	require.NoError(t, err)

	tokens, err := auth.NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"), "link-shortener", time.Hour)
	require.NoError(t, err)

	_, api := humatest.New(t)
	api.UseMiddleware(middleware.RequestMeta(api))

	urlHandler := handlers.NewURLHandler(
		shortener.NewResolver(urlStore), baseURL+"/", strategies,
		cfg.publishers(recorded), time.Second, c.Now, zap.NewNop(),
	)
	authHandler := handlers.NewAuthHandler(service, tokens, cfg.attempts, time.Second, zap.NewNop())

	handlers.RegisterAuthRoutes(api, authHandler)
	handlers.RegisterURLRoutes(api, urlHandler, middleware.BearerAuth(api, tokens, cfg.requireAuth))

	return &testServer{api: api, clock: c, events: recorded, tokens: tokens}
}
