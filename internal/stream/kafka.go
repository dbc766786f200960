// Package stream publishes recorded leads to Kafka for downstream consumers
// such as CRMs.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"whatsapp-lead-logger/pkg/models"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer MessageWriter
}

// NewWriter returns a synchronous writer keyed by contact so one contact's
// leads stay on one partition.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  1,
		Async:        false,
	}
}

func NewPublisher(w MessageWriter) *Publisher {
	return &Publisher{writer: w}
}

// Append publishes rec as JSON. No retries beyond the writer's single attempt.
func (p *Publisher) Append(ctx context.Context, rec models.LeadRecord) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal lead: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(rec.ContactWaID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "source_id", Value: []byte(rec.SourceID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish lead: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
