package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Shopify/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// SubscriberConfig holds configuration for consuming the event topic
type SubscriberConfig struct {
	KafkaBrokers  []string
	ConsumerGroup string
	FromOldest    bool
	Logger        *slog.Logger
}

// NewKafkaSubscriber creates a consumer-group subscriber for the event topic
func NewKafkaSubscriber(config SubscriberConfig) (message.Subscriber, error) {
	saramaConfig := kafka.DefaultSaramaSubscriberConfig()
	if config.FromOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	}

	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               config.KafkaBrokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: saramaConfig,
		ConsumerGroup:         config.ConsumerGroup,
	}, watermill.NewSlogLogger(config.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka subscriber: %w", err)
	}
	return subscriber, nil
}

// ReceivedEvent is an event read back from the topic. Data stays raw since
// its shape depends on Type.
type ReceivedEvent struct {
	Event
	Data json.RawMessage `json:"data"`
}

// DecodeEvent parses a message written by WatermillEventPublisher
func DecodeEvent(msg *message.Message) (*ReceivedEvent, error) {
	var event ReceivedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode event %s: %w", msg.UUID, err)
	}
	if event.Type == "" {
		event.Type = EventType(msg.Metadata.Get("event_type"))
	}
	return &event, nil
}

// Handler processes one decoded event. Returning an error nacks the message.
type Handler func(ctx context.Context, event *ReceivedEvent) error

// Consume reads topic until ctx is done. Undecodable messages are logged and
// acked so they do not block the partition.
func Consume(ctx context.Context, subscriber message.Subscriber, topic string, logger *slog.Logger, handle Handler) error {
	messages, err := subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			event, err := DecodeEvent(msg)
			if err != nil {
				logger.Warn("Skipping malformed event", "message_id", msg.UUID, "error", err)
				msg.Ack()
				continue
			}
			if err := handle(msg.Context(), event); err != nil {
				logger.Error("Failed to handle event",
					"event_id", event.ID,
					"event_type", event.Type,
					"error", err)
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}
}
