package messaging_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/serroba/link-shortener/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type failingSubscriber struct{}

func (failingSubscriber) Subscribe(context.Context, string) (<-chan *message.Message, error) {
	return nil, errors.New("subscribe error")
}

func (failingSubscriber) Close() error { return nil }

func newPubSub(t *testing.T) *gochannel.GoChannel {
	t.Helper()

	pubsub := messaging.NewMemoryPubSub(messaging.NewZapLogger(zap.NewNop()))
	t.Cleanup(func() { _ = pubsub.Close() })

	return pubsub
}

func TestConsumer_Start(t *testing.T) {
	t.Run("reports its topic", func(t *testing.T) {
		consumer := messaging.NewConsumer(newPubSub(t), "test.topic",
			func(context.Context, *testEvent) error { return nil }, zap.NewNop())

		require.NoError(t, consumer.Start(context.Background()))
		assert.Equal(t, "test.topic", consumer.Topic())
		require.NoError(t, consumer.Shutdown())
	})

	t.Run("returns error when subscribe fails", func(t *testing.T) {
		consumer := messaging.NewConsumer(failingSubscriber{}, "test.topic",
			func(context.Context, *testEvent) error { return nil }, zap.NewNop())

		require.Error(t, consumer.Start(context.Background()))
		assert.NoError(t, consumer.Shutdown(), "shutdown after a failed start does not block")
	})

	t.Run("shutdown without start is a no-op", func(t *testing.T) {
		consumer := messaging.NewConsumer(newPubSub(t), "test.topic",
			func(context.Context, *testEvent) error { return nil }, zap.NewNop())

		assert.NoError(t, consumer.Shutdown())
	})
}

func TestConsumer_Delivery(t *testing.T) {
	t.Run("delivers published events to the handler", func(t *testing.T) {
		pubsub := newPubSub(t)
		received := make(chan *testEvent, 1)

		consumer := messaging.NewConsumer(pubsub, "test.topic",
			func(_ context.Context, event *testEvent) error {
				received <- event

				return nil
			}, zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))

		defer func() { _ = consumer.Shutdown() }()

		publish := messaging.NewPublishFunc[testEvent](pubsub, "test.topic")
		require.NoError(t, publish(context.Background(), &testEvent{ID: "123", Name: "test"}))

		select {
		case event := <-received:
			assert.Equal(t, "123", event.ID)
			assert.Equal(t, "test", event.Name)
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for event")
		}
	})

	t.Run("acks and drops undecodable payloads", func(t *testing.T) {
		pubsub := newPubSub(t)
		received := make(chan *testEvent, 2)

		consumer := messaging.NewConsumer(pubsub, "test.topic",
			func(_ context.Context, event *testEvent) error {
				received <- event

				return nil
			}, zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))

		defer func() { _ = consumer.Shutdown() }()

		require.NoError(t, pubsub.Publish("test.topic",
			message.NewMessage(uuid.NewString(), []byte("invalid json"))))

		publish := messaging.NewPublishFunc[testEvent](pubsub, "test.topic")
		require.NoError(t, publish(context.Background(), &testEvent{ID: "after"}))

		// A nacked poison message would be redelivered forever and block the next one.
		select {
		case event := <-received:
			assert.Equal(t, "after", event.ID)
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for event after undecodable payload")
		}

		assert.Empty(t, received)
	})

	t.Run("nacks on handler error so the event is redelivered", func(t *testing.T) {
		pubsub := newPubSub(t)
		attempts := make(chan struct{}, 10)

		consumer := messaging.NewConsumer(pubsub, "test.topic",
			func(context.Context, *testEvent) error {
				attempts <- struct{}{}
				if len(attempts) < 2 {
					return errors.New("handler error")
				}

				return nil
			}, zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))

		defer func() { _ = consumer.Shutdown() }()

		publish := messaging.NewPublishFunc[testEvent](pubsub, "test.topic")
		require.NoError(t, publish(context.Background(), &testEvent{ID: "retry"}))

		assert.Eventually(t, func() bool { return len(attempts) >= 2 }, time.Second, 10*time.Millisecond)
	})
}
