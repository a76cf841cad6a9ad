package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/covechat/cove/internal/domain"
	"github.com/covechat/cove/pkg/log"
)

// Archiver receives every accepted message for retention beyond the bounded
// in-store window. Best-effort: archive failures never fail the send path.
type Archiver interface {
	ArchiveRoomMessage(ctx context.Context, msg *domain.RoomMessage) error
	ArchiveDirectMessage(ctx context.Context, msg *domain.DirectMessage) error
	Close() error
}

// KafkaArchiver produces accepted messages onto a Kafka topic so an
// external consumer can keep the full history the store trims away.
type KafkaArchiver struct {
	producer *kafka.Producer
	topic    string
	doneCh   chan struct{}
}

func NewKafkaArchiver(brokers, topic string) (*KafkaArchiver, error) {
	if err := ensureTopic(brokers, topic); err != nil {
		l := log.L()
		l.Warn().Err(err).Str("topic", topic).Msg("failed to ensure archive topic (may already exist)")
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	a := &KafkaArchiver{
		producer: p,
		topic:    topic,
		doneCh:   make(chan struct{}),
	}

	go a.deliveryReportHandler()

	return a, nil
}

func ensureTopic(brokers, topic string) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{
		{
			Topic:             topic,
			NumPartitions:     8,
			ReplicationFactor: 1,
		},
	})
	if err != nil {
		return err
	}

	for _, result := range results {
		if result.Error.Code() != kafka.ErrNoError && result.Error.Code() != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %v", result.Topic, result.Error)
		}
	}
	return nil
}

func (a *KafkaArchiver) deliveryReportHandler() {
	for e := range a.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				l := log.L()
				l.Warn().Err(ev.TopicPartition.Error).Msg("archive delivery failed")
			}
		}
	}
	close(a.doneCh)
}

func (a *KafkaArchiver) ArchiveRoomMessage(ctx context.Context, msg *domain.RoomMessage) error {
	// Keyed by room so one room's history stays in partition order.
	return a.produce(msg.Room, msg)
}

func (a *KafkaArchiver) ArchiveDirectMessage(ctx context.Context, msg *domain.DirectMessage) error {
	return a.produce(domain.ConversationKey(msg.From, msg.To), msg)
}

func (a *KafkaArchiver) produce(key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal archive record: %w", err)
	}

	err = a.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &a.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(key),
		Value: value,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce archive record: %w", err)
	}
	return nil
}

func (a *KafkaArchiver) Close() error {
	a.producer.Flush(5000)
	a.producer.Close()
	<-a.doneCh
	return nil
}
