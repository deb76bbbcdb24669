package store

import (
	"context"

	"github.com/serroba/link-shortener/internal/analytics"
	"go.uber.org/zap"
)

// Log is an analytics.Store that only writes events to the logger.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a logging analytics store.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) SaveURLCreated(_ context.Context, event *analytics.URLCreatedEvent) error {
	fields := []zap.Field{
		zap.String("code", event.Code),
		zap.String("originalUrl", event.OriginalURL),
		zap.String("strategy", event.Strategy),
		zap.Time("createdAt", event.CreatedAt),
	}

	if event.ExpiresAt != nil {
		fields = append(fields, zap.Time("expiresAt", *event.ExpiresAt))
	}

	if event.CreatedBy != "" {
		fields = append(fields, zap.String("createdBy", event.CreatedBy))
	}

	l.logger.Info("url created", fields...)

	return nil
}

func (l *Log) SaveURLAccessed(_ context.Context, event *analytics.URLAccessedEvent) error {
	l.logger.Info("url accessed",
		zap.String("code", event.Code),
		zap.String("outcome", event.Outcome),
		zap.Time("accessedAt", event.AccessedAt),
		zap.String("referrer", event.Referrer),
	)

	return nil
}

var _ analytics.Store = (*Log)(nil)
