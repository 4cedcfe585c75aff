package event_publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"
	"wallettracker/apps/tracker/internal/chains"
	"wallettracker/apps/tracker/internal/events"
	"wallettracker/apps/tracker/internal/model"
	"wallettracker/apps/tracker/internal/notifier"
)

// EventPublisher streams activity events to Kafka. It satisfies
// notifier.Notifier so it can be registered as an extra sink.
type EventPublisher struct {
	logger        *zap.Logger
	kafkaProducer *kafka.Producer
	kafkaTopic    string
	registry      *chains.Registry
	mu            sync.Mutex // one in-flight publish per instance
}

func NewEventPublisher(kafkaBroker, kafkaTopic string, registry *chains.Registry, logger *zap.Logger) (*EventPublisher, error) {
	producer, err := kafka.NewProducer(producerConfig(kafkaBroker))
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &EventPublisher{
		logger:        logger,
		kafkaProducer: producer,
		kafkaTopic:    kafkaTopic,
		registry:      registry,
	}, nil
}

func (ep *EventPublisher) Notify(ctx context.Context, event model.ActivityEvent) error {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	msgBytes, err := encodeEvent(event, ep.registry, time.Now())
	if err != nil {
		return fmt.Errorf("%w: %w", notifier.ErrDeliveryFailed, err)
	}

	deliveryChan := make(chan kafka.Event, 1)

	err = ep.kafkaProducer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &ep.kafkaTopic, Partition: kafka.PartitionAny},
		Key:            []byte(event.Address), // wallet address keeps a wallet's events on one partition
		Value:          msgBytes,
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("%w: kafka: %w", notifier.ErrDeliveryFailed, err)
	}

	select {
	case e := <-deliveryChan:
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				return fmt.Errorf("%w: kafka: %w", notifier.ErrDeliveryFailed, ev.TopicPartition.Error)
			}
			ep.logger.Debug("Published activity event to Kafka",
				zap.String("event_id", event.ID),
				zap.String("topic", ep.kafkaTopic),
				zap.Int32("partition", ev.TopicPartition.Partition))
			return nil
		default:
			return fmt.Errorf("%w: unexpected kafka event type: %T", notifier.ErrDeliveryFailed, e)
		}
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", notifier.ErrDeliveryFailed, ctx.Err())
	}
}

// producerConfig disables producer retries: a failed publish is dropped like
// any other failed notification.
func producerConfig(kafkaBroker string) *kafka.ConfigMap {
	return &kafka.ConfigMap{
		"bootstrap.servers":  kafkaBroker,
		"acks":               "all",
		"retries":            0,
		"message.timeout.ms": 10000,
	}
}

func encodeEvent(event model.ActivityEvent, registry *chains.Registry, now time.Time) ([]byte, error) {
	msg := events.WalletActivityEvent{
		EventType:       events.EventTypeWalletActivity,
		EventID:         event.ID,
		WalletAddress:   event.Address,
		Chain:           event.ChainKey,
		Label:           event.Label,
		PreviousCount:   event.PreviousCount,
		ObservedCount:   event.ObservedCount,
		ObservedBalance: event.ObservedBalance,
		ExplorerLink:    event.ExplorerLink,
		ObservedAt:      event.Timestamp,
		Timestamp:       now,
	}
	if chain, ok := registry.Get(event.ChainKey); ok {
		msg.ChainID = chain.ChainID
	}

	return json.Marshal(msg)
}

// Close flushes outstanding messages before shutting the producer down
func (ep *EventPublisher) Close() error {
	if ep.kafkaProducer != nil {
		if remaining := ep.kafkaProducer.Flush(5000); remaining > 0 {
			ep.logger.Warn("Kafka messages left unflushed on close", zap.Int("remaining", remaining))
		}
		ep.kafkaProducer.Close()
	}
	return nil
}
