package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"ms-concerts/internal/models"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer      messageWriter
	TopicPrefix string
}

func NewProducer(brokers []string, topicPrefix string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, TopicPrefix: topicPrefix}
}

// Topic returns the topic carrying events of the given type.
func Topic(prefix string, eventType models.TicketEventType) string {
	return fmt.Sprintf("%s.ticket.%s", prefix, eventType)
}

// TicketTopics lists every lifecycle topic for prefix.
func TicketTopics(prefix string) []string {
	topics := make([]string, 0, len(models.TicketEvents))
	for _, eventType := range models.TicketEvents {
		topics = append(topics, Topic(prefix, eventType))
	}
	return topics
}

// PublishTicketEvent streams a committed ticket transition to Kafka, keyed by
// ticket so a ticket's events stay ordered within a partition.
func (p *Producer) PublishTicketEvent(ctx context.Context, event models.TicketEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(ctx,
		kafka.Message{
			Topic: Topic(p.TopicPrefix, event.Type),
			Key:   []byte(event.TicketID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
