package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/link-shortener/internal/accounts"
	"github.com/serroba/link-shortener/internal/apierror"
	"github.com/serroba/link-shortener/internal/auth"
	"github.com/serroba/link-shortener/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	minUserIDLength   = 3
	maxUserIDLength   = 50
	minPasswordLength = 6
)

// AttemptLimiter throttles login attempts per user id.
type AttemptLimiter interface {
	ratelimit.Limiter
	Window() time.Duration
}

// AuthHandler handles signup and login.
type AuthHandler struct {
	accounts *accounts.Service
	tokens   *auth.TokenIssuer
	attempts AttemptLimiter
	timeout  time.Duration
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler. attempts may be nil to disable
// login throttling.
func NewAuthHandler(
	service *accounts.Service,
	tokens *auth.TokenIssuer,
	attempts AttemptLimiter,
	timeout time.Duration,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts: service,
		tokens:   tokens,
		attempts: attempts,
		timeout:  timeout,
		logger:   logger,
	}
}

func (h *AuthHandler) Signup(ctx context.Context, req *CredentialsRequest) (*AuthResponse, error) {
	userID := strings.TrimSpace(req.Body.UserID)
	password := req.Body.Password

	switch {
	case userID == "" || password == "":
		return nil, apierror.Failure(http.StatusBadRequest, "User ID and password are required")
	case utf8.RuneCountInString(userID) < minUserIDLength:
		return nil, apierror.Failure(http.StatusBadRequest, "User ID must be at least 3 characters long")
	case utf8.RuneCountInString(userID) > maxUserIDLength:
		return nil, apierror.Failure(http.StatusBadRequest, "User ID must be at most 50 characters long")
	case len(password) < minPasswordLength:
		return nil, apierror.Failure(http.StatusBadRequest, "Password must be at least 6 characters long")
	}

	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	account, err := h.accounts.CreateAccount(ctx, userID, password)
	if err != nil {
		if errors.Is(err, accounts.ErrUserExists) {
			return nil, apierror.Failure(http.StatusBadRequest, "User ID already exists")
		}

		h.logger.Error("failed to create account", zap.String("user_id", userID), zap.Error(err))

		return nil, apierror.Failure(http.StatusServiceUnavailable, "Service unavailable")
	}

	return h.issue(account.UserID, http.StatusCreated, "Signup successful")
}

func (h *AuthHandler) Login(ctx context.Context, req *CredentialsRequest) (*AuthResponse, error) {
	userID := strings.TrimSpace(req.Body.UserID)
	if userID == "" || req.Body.Password == "" {
		return nil, apierror.Failure(http.StatusBadRequest, "User ID and password are required")
	}

	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.checkAttempts(ctx, userID); err != nil {
		return nil, err
	}

	ok, err := h.accounts.Verify(ctx, userID, req.Body.Password)
	if err != nil {
		h.logger.Error("failed to verify credentials", zap.String("user_id", userID), zap.Error(err))

		return nil, apierror.Failure(http.StatusServiceUnavailable, "Service unavailable")
	}

	if !ok {
		return nil, apierror.Failure(http.StatusUnauthorized, "Invalid user ID or password")
	}

	return h.issue(userID, http.StatusOK, "Login successful")
}

func (h *AuthHandler) checkAttempts(ctx context.Context, userID string) error {
	if h.attempts == nil {
		return nil
	}

	allowed, err := h.attempts.Allow(ctx, userID)
	if err != nil {
		h.logger.Error("login attempt check failed", zap.String("user_id", userID), zap.Error(err))

		return apierror.Failure(http.StatusServiceUnavailable, "Service unavailable")
	}

	if allowed {
		return nil
	}

	h.logger.Warn("too many login attempts", zap.String("user_id", userID))

	headers := http.Header{}
	headers.Set("Retry-After", strconv.Itoa(int(math.Ceil(h.attempts.Window().Seconds()))))

	return huma.ErrorWithHeaders(
		apierror.Failure(http.StatusTooManyRequests, "Too many login attempts, try again later"),
		headers,
	)
}

func (h *AuthHandler) issue(userID string, status int, message string) (*AuthResponse, error) {
	token, err := h.tokens.Issue(userID)
	if err != nil {
		h.logger.Error("failed to issue token", zap.String("user_id", userID), zap.Error(err))

		return nil, apierror.Failure(http.StatusInternalServerError, "Internal server error")
	}

	resp := &AuthResponse{Status: status}
	resp.Body.Success = true
	resp.Body.Message = message
	resp.Body.Token = token
	resp.Body.UserID = userID

	return resp, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}
