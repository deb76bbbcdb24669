package analytics

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/link-shortener/internal/messaging"
)

// Publishers holds the typed publish functions for every analytics topic.
type Publishers struct {
	URLCreated  messaging.Publish[URLCreatedEvent]
	URLAccessed messaging.Publish[URLAccessedEvent]
}

// NewPublishers binds each analytics topic to publisher.
func NewPublishers(publisher message.Publisher) *Publishers {
	return &Publishers{
		URLCreated:  messaging.NewPublishFunc[URLCreatedEvent](publisher, TopicURLCreated),
		URLAccessed: messaging.NewPublishFunc[URLAccessedEvent](publisher, TopicURLAccessed),
	}
}
