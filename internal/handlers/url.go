package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/serroba/link-shortener/internal/analytics"
	"github.com/serroba/link-shortener/internal/apierror"
	"github.com/serroba/link-shortener/internal/auth"
	"github.com/serroba/link-shortener/internal/shortener"
	"go.uber.org/zap"
)

// maxExpiresInDays keeps now + N days well inside time.Duration.
const maxExpiresInDays = 36500

// URLHandler handles URL shortening operations.
type URLHandler struct {
	strategies      map[Strategy]shortener.Strategy
	resolver        *shortener.Resolver
	baseURL         string
	defaultStrategy Strategy
	timeout         time.Duration
	now             func() time.Time
	publishers      *analytics.Publishers
	logger          *zap.Logger
}

// NewURLHandler creates a new URL handler with injected strategies. now must be
// the clock of the store behind the strategies.
func NewURLHandler(
	resolver *shortener.Resolver,
	baseURL string,
	strategies map[Strategy]shortener.Strategy,
	publishers *analytics.Publishers,
	timeout time.Duration,
	now func() time.Time,
	logger *zap.Logger,
) *URLHandler {
	return &URLHandler{
		strategies:      strategies,
		resolver:        resolver,
		baseURL:         strings.TrimRight(baseURL, "/"),
		defaultStrategy: StrategyToken,
		timeout:         timeout,
		now:             now,
		publishers:      publishers,
		logger:          logger,
	}
}

func (h *URLHandler) CreateShortURL(ctx context.Context, req *CreateShortURLRequest) (*CreateShortURLResponse, error) {
	strategyName := req.Body.Strategy
	if strategyName == "" {
		strategyName = h.defaultStrategy
	}

	strategy, ok := h.strategies[strategyName]
	if !ok {
		return nil, apierror.New(http.StatusBadRequest, "invalid strategy: must be 'token' or 'hash'")
	}

	if strings.TrimSpace(req.Body.URL) == "" {
		return nil, apierror.New(http.StatusBadRequest, "url is required")
	}

	expiresAt, err := h.expiry(req.Body.ExpiresInDays)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	shortURL, err := strategy.Shorten(ctx, req.Body.URL, expiresAt)
	if err != nil {
		return nil, h.shortenError(err)
	}

	h.publishCreated(ctx, shortURL, strategyName)

	fullShortURL := fmt.Sprintf("%s/%s", h.baseURL, shortURL.Code)

	resp := &CreateShortURLResponse{}
	resp.Headers.Location = fullShortURL
	resp.Body.Code = string(shortURL.Code)
	resp.Body.ShortURL = fullShortURL
	resp.Body.OriginalURL = shortURL.OriginalURL
	resp.Body.CreatedAt = shortURL.CreatedAt
	resp.Body.ExpiresAt = shortURL.ExpiresAt

	return resp, nil
}

// expiry converts expires_in_days into an absolute time. Absent or
// non-positive values mean the link never expires.
func (h *URLHandler) expiry(days *int) (*time.Time, error) {
	if days == nil || *days <= 0 {
		return nil, nil
	}

	if *days > maxExpiresInDays {
		return nil, apierror.New(http.StatusBadRequest,
			fmt.Sprintf("expires_in_days must be at most %d", maxExpiresInDays))
	}

	expiresAt := h.now().Add(time.Duration(*days) * 24 * time.Hour)

	return &expiresAt, nil
}

func (h *URLHandler) shortenError(err error) error {
	switch {
	case errors.Is(err, shortener.ErrInvalidURL):
		return apierror.New(http.StatusBadRequest, "invalid url: must be an absolute http or https URL")
	case errors.Is(err, shortener.ErrInvalidExpiry):
		return apierror.New(http.StatusBadRequest, "expiry must be in the future")
	case errors.Is(err, shortener.ErrGenerationExhausted):
		h.logger.Warn("short code generation exhausted", zap.Error(err))

		return apierror.New(http.StatusConflict, "could not allocate a short code, please retry")
	default:
		h.logger.Error("failed to save url", zap.Error(err))

		return apierror.Unavailable()
	}
}

func (h *URLHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	resolution, err := h.resolver.Resolve(ctx, shortener.Code(req.Code))
	if err != nil {
		h.logger.Error("failed to resolve code", zap.String("code", req.Code), zap.Error(err))

		return nil, apierror.Unavailable()
	}

	h.publishAccessed(ctx, req.Code, resolution.Outcome)

	switch resolution.Outcome {
	case shortener.OutcomeRedirect:
	case shortener.OutcomeExpired:
		return nil, apierror.New(http.StatusGone, "short url has expired")
	default:
		return nil, apierror.New(http.StatusNotFound, "short url not found")
	}

	resp := &RedirectResponse{Status: http.StatusMovedPermanently}
	if resolution.ShortURL.ExpiresAt != nil {
		resp.Status = http.StatusFound
	}

	resp.Headers.Location = resolution.ShortURL.OriginalURL

	return resp, nil
}

func (h *URLHandler) publishCreated(ctx context.Context, shortURL *shortener.ShortURL, strategy Strategy) {
	if h.publishers == nil {
		return
	}

	meta := analytics.RequestMetaFromContext(ctx)
	createdBy, _ := auth.UserIDFromContext(ctx)

	event := &analytics.URLCreatedEvent{
		Code:        string(shortURL.Code),
		OriginalURL: shortURL.OriginalURL,
		URLHash:     string(shortURL.URLHash),
		Strategy:    string(strategy),
		CreatedAt:   shortURL.CreatedAt,
		ExpiresAt:   shortURL.ExpiresAt,
		CreatedBy:   createdBy,
		ClientIP:    meta.ClientIP,
		UserAgent:   meta.UserAgent,
	}

	if err := h.publishers.URLCreated(ctx, event); err != nil {
		h.logger.Error("failed to publish analytics event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}
}

func (h *URLHandler) publishAccessed(ctx context.Context, code string, outcome shortener.Outcome) {
	if h.publishers == nil {
		return
	}

	meta := analytics.RequestMetaFromContext(ctx)
	event := &analytics.URLAccessedEvent{
		Code:       code,
		Outcome:    outcome.String(),
		AccessedAt: h.now(),
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
	}

	if err := h.publishers.URLAccessed(ctx, event); err != nil {
		h.logger.Error("failed to publish access event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}
}
