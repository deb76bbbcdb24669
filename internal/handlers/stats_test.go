package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/serroba/link-shortener/internal/analytics/store"
	"github.com/serroba/link-shortener/internal/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStats struct {
	counts map[string]*store.Counts
	err    error
}

func (f *fakeStats) Counts(_ context.Context, code string) (*store.Counts, error) {
	if f.err != nil {
		return nil, f.err
	}

	if counts, ok := f.counts[code]; ok {
		return counts, nil
	}

	return &store.Counts{Outcomes: map[string]int64{}}, nil
}

func newStatsAPI(t *testing.T, stats handlers.StatsReader) humatest.TestAPI {
	t.Helper()

	_, api := humatest.New(t)
	handlers.RegisterStatsRoutes(api, handlers.NewStatsHandler(stats, time.Second, zap.NewNop()))

	return api
}

func TestGetStats(t *testing.T) {
	t.Run("returns click counters", func(t *testing.T) {
		api := newStatsAPI(t, &fakeStats{counts: map[string]*store.Counts{
			"abc123": {Created: 1, Outcomes: map[string]int64{"redirect": 7, "expired": 2}},
		}})

		resp := api.Get("/api/stats/abc123")

		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Code        string `json:"code"`
			Created     int64  `json:"created"`
			ClickCount  int64  `json:"click_count"`
			ExpiredHits int64  `json:"expired_hits"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "abc123", body.Code)
		assert.Equal(t, int64(1), body.Created)
		assert.Equal(t, int64(7), body.ClickCount)
		assert.Equal(t, int64(2), body.ExpiredHits)
	})

	t.Run("codes without counters are 404", func(t *testing.T) {
		api := newStatsAPI(t, &fakeStats{})

		resp := api.Get("/api/stats/nope00")

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.JSONEq(t, `{"error":"no stats for short url"}`, resp.Body.String())
	})

	t.Run("storage faults are unavailable", func(t *testing.T) {
		api := newStatsAPI(t, &fakeStats{err: errBackend})

		resp := api.Get("/api/stats/abc123")

		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
		assert.JSONEq(t, `{"error":"service unavailable"}`, resp.Body.String())
	})
}
