package analytics

import (
	"github.com/serroba/link-shortener/internal/messaging"
	"go.uber.org/zap"
)

// RegisterConsumers adds one consumer per analytics topic to group, each
// persisting into store.
func RegisterConsumers(group *messaging.ConsumerGroup, store Store, logger *zap.Logger) {
	group.Add(messaging.NewConsumer(group.Subscriber(), TopicURLCreated, store.SaveURLCreated, logger))
	group.Add(messaging.NewConsumer(group.Subscriber(), TopicURLAccessed, store.SaveURLAccessed, logger))
}
