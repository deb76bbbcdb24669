package messaging

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// Backend selects the pub/sub implementation.
type Backend string

const (
	// BackendMemory delivers events in-process. Consumers must run in the server.
	BackendMemory Backend = "memory"
	// BackendRedis uses Redis Streams so a separate consumer process can read events.
	BackendRedis Backend = "redis"
)

// NewMemoryPubSub returns an in-process pub/sub usable as both publisher and subscriber.
func NewMemoryPubSub(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
}

// NewRedisPublisher publishes to Redis Streams.
func NewRedisPublisher(client redis.UniversalClient, logger watermill.LoggerAdapter) (message.Publisher, error) {
	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{Client: client}, logger)
	if err != nil {
		return nil, fmt.Errorf("create redis stream publisher: %w", err)
	}

	return publisher, nil
}

// NewRedisSubscriber reads Redis Streams as part of consumerGroup.
func NewRedisSubscriber(
	client redis.UniversalClient, consumerGroup string, logger watermill.LoggerAdapter,
) (message.Subscriber, error) {
	subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        client,
		ConsumerGroup: consumerGroup,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create redis stream subscriber: %w", err)
	}

	return subscriber, nil
}
