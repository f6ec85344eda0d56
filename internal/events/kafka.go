package events

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"kainan-backend/pkg/logger"
)

// KafkaPublisher mirrors hub events onto a Kafka topic for downstream
// consumers (analytics, notifications). Publishing is fire-and-forget from
// the request path; a failed write is logged, never surfaced to the caller.
type KafkaPublisher struct {
	writer *kafka.Writer
	next   Publisher
}

// NewKafkaPublisher wraps next so every event reaches both the in-process
// hub and the topic.
func NewKafkaPublisher(brokers []string, topic string, next Publisher) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
		},
		next: next,
	}
}

func (p *KafkaPublisher) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	if p.next != nil {
		p.next.Publish(e)
	}

	value, err := json.Marshal(e)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal order event")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(e.OrderID),
			Value: value,
		})
		if err != nil {
			logger.Error().Err(err).Str("order_id", e.OrderID).Msg("failed to publish order event")
		}
	}()
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
