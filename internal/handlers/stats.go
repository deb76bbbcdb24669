package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/serroba/link-shortener/internal/analytics/store"
	"github.com/serroba/link-shortener/internal/apierror"
	"github.com/serroba/link-shortener/internal/shortener"
	"go.uber.org/zap"
)

// StatsReader reads the per-code counters kept by the analytics consumers.
type StatsReader interface {
	Counts(ctx context.Context, code string) (*store.Counts, error)
}

// StatsHandler serves click counters.
type StatsHandler struct {
	stats   StatsReader
	timeout time.Duration
	logger  *zap.Logger
}

func NewStatsHandler(stats StatsReader, timeout time.Duration, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, timeout: timeout, logger: logger}
}

func (h *StatsHandler) GetStats(ctx context.Context, req *StatsRequest) (*StatsResponse, error) {
	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	counts, err := h.stats.Counts(ctx, req.Code)
	if err != nil {
		h.logger.Error("failed to read stats", zap.String("code", req.Code), zap.Error(err))

		return nil, apierror.Unavailable()
	}

	if counts.Created == 0 && len(counts.Outcomes) == 0 {
		return nil, apierror.New(http.StatusNotFound, "no stats for short url")
	}

	resp := &StatsResponse{}
	resp.Body.Code = req.Code
	resp.Body.Created = counts.Created
	resp.Body.ClickCount = counts.Outcomes[shortener.OutcomeRedirect.String()]
	resp.Body.ExpiredHits = counts.Outcomes[shortener.OutcomeExpired.String()]

	return resp, nil
}
