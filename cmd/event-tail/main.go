// Command event-tail consumes the attempt event topic from Kafka and logs
// each event. It is the reference consumer for downstream services.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	group := flag.String("group", "quiz-event-tail", "Kafka consumer group")
	fromOldest := flag.Bool("from-oldest", false, "start from the oldest retained offset")
	flag.Parse()

	logger := utils.ToSlogLogger(utils.NewLogger(cfg.Environment, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	subscriber, err := events.NewKafkaSubscriber(events.SubscriberConfig{
		KafkaBrokers:  cfg.Events.GetKafkaBrokers(),
		ConsumerGroup: *group,
		FromOldest:    *fromOldest,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("Failed to create subscriber", "error", err)
		os.Exit(1)
	}
	defer subscriber.Close()

	logger.Info("Listening for events", "topic", cfg.Events.Topic, "brokers", cfg.Events.KafkaBrokers)
	err = events.Consume(ctx, subscriber, cfg.Events.Topic, logger, func(_ context.Context, event *events.ReceivedEvent) error {
		logger.Info("Event received",
			"event_id", event.ID,
			"event_type", event.Type,
			"timestamp", event.Timestamp,
			"data", string(event.Data))
		return nil
	})
	if err != nil {
		logger.Error("Consumer stopped", "error", err)
		os.Exit(1)
	}
}
