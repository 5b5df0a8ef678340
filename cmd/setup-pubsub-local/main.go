package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"brandguard/internal/config"
	"brandguard/internal/logger"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Creates the design event topic, its dead-letter topic and a pull
// subscription on the local Pub/Sub emulator.
func main() {
	reset := flag.Bool("reset", false, "Delete every topic and subscription on the emulator first")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on system environment variables.")
	}

	logger := logger.New()
	logger.Info().Msg("Starting Pub/Sub setup for the local environment.")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Failed to load config: %v", err)
	}
	if cfg.GCPProjectID == "" {
		logger.Fatal().Msg("GCP_PROJECT_ID is not set in the environment.")
	}
	if cfg.PubSubEmulatorHost == "" {
		logger.Fatal().Msg("PUBSUB_EMULATOR_HOST must be set for local environment.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID,
		option.WithEndpoint(cfg.PubSubEmulatorHost),
		option.WithoutAuthentication(),
	)
	if err != nil {
		logger.Fatal().Msgf("Failed to create Pub/Sub client: %v", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error().Msgf("Failed to close pubsub client: %v", err)
		}
	}()

	if *reset {
		resetLocalEmulator(ctx, client, logger)
	}
	createResources(ctx, client, logger, cfg.PubSubDesignEventsTopic)

	logger.Info().Msg("Pub/Sub setup for local environment complete.")
}

// resetLocalEmulator deletes all topics and subscriptions. Only for the emulator.
func resetLocalEmulator(ctx context.Context, client *pubsub.Client, logger zerolog.Logger) {
	logger.Info().Msg("--- Deleting all existing resources for a clean local setup ---")

	subs := client.Subscriptions(ctx)
	for {
		sub, err := subs.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Fatal().Msgf("Failed to list subscriptions: %v", err)
		}
		logger.Info().Msgf("Deleting subscription: %s", sub.ID())
		if err := sub.Delete(ctx); err != nil {
			logger.Warn().Msgf("Failed to delete subscription %s: %v", sub.ID(), err)
		}
	}

	topics := client.Topics(ctx)
	for {
		topic, err := topics.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Fatal().Msgf("Failed to list topics: %v", err)
		}
		logger.Info().Msgf("Deleting topic: %s", topic.ID())
		if err := topic.Delete(ctx); err != nil {
			logger.Warn().Msgf("Failed to delete topic %s: %v", topic.ID(), err)
		}
	}
}

func createResources(ctx context.Context, client *pubsub.Client, logger zerolog.Logger, topicID string) {
	sevenDays := 7 * 24 * time.Hour

	dlqTopic := ensureTopic(ctx, client, logger, topicID+"-dlq", sevenDays)
	mainTopic := ensureTopic(ctx, client, logger, topicID, sevenDays)

	ensureSubscription(ctx, client, logger, topicID+"-sub", pubsub.SubscriptionConfig{
		Topic:            mainTopic,
		AckDeadline:      60 * time.Second,
		ExpirationPolicy: 31 * 24 * time.Hour,
		RetryPolicy: &pubsub.RetryPolicy{
			MinimumBackoff: 10 * time.Second,
			MaximumBackoff: 600 * time.Second,
		},
		DeadLetterPolicy: &pubsub.DeadLetterPolicy{
			DeadLetterTopic:     dlqTopic.String(),
			MaxDeliveryAttempts: 5,
		},
	})
	ensureSubscription(ctx, client, logger, topicID+"-dlq-sub", pubsub.SubscriptionConfig{
		Topic:            dlqTopic,
		AckDeadline:      60 * time.Second,
		ExpirationPolicy: 31 * 24 * time.Hour,
	})
}

func ensureTopic(ctx context.Context, client *pubsub.Client, logger zerolog.Logger, topicID string, retention time.Duration) *pubsub.Topic {
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		logger.Fatal().Msgf("Failed to check if topic %s exists: %v", topicID, err)
	}
	if exists {
		logger.Info().Msgf("Topic %s already exists", topicID)
		return topic
	}

	logger.Info().Msgf("Creating topic: %s with %v retention", topicID, retention)
	topic, err = client.CreateTopicWithConfig(ctx, topicID, &pubsub.TopicConfig{RetentionDuration: retention})
	if err != nil {
		logger.Fatal().Msgf("Failed to create topic %s: %v", topicID, err)
	}
	return topic
}

func ensureSubscription(ctx context.Context, client *pubsub.Client, logger zerolog.Logger, subID string, config pubsub.SubscriptionConfig) {
	sub := client.Subscription(subID)
	exists, err := sub.Exists(ctx)
	if err != nil {
		logger.Fatal().Msgf("Failed to check if subscription %s exists: %v", subID, err)
	}
	if exists {
		logger.Info().Msgf("Subscription %s already exists", subID)
		return
	}
	logger.Info().Msgf("Creating subscription %s on %s", subID, config.Topic.ID())
	if _, err := client.CreateSubscription(ctx, subID, config); err != nil {
		logger.Fatal().Msgf("Failed to create subscription '%s': %v", subID, err)
	}
}
