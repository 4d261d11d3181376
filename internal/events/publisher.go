// Package events publishes ledger events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// InvestmentRecorded is emitted after a ledger entry commits. It never carries the asset.
type InvestmentRecorded struct {
	EntryID    uint      `json:"entry_id"`
	UserID     uint      `json:"user_id"`
	Type       string    `json:"type"`
	Amount     string    `json:"amount"`
	Date       string    `json:"date"`
	Balance    string    `json:"balance"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Publisher delivers ledger events
type Publisher interface {
	PublishInvestmentRecorded(ctx context.Context, event InvestmentRecorded) error
	Close() error
}

// KafkaPublisher writes events to one topic, keyed by user so a user's events stay ordered
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and topic
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// PublishInvestmentRecorded serializes event as JSON and writes it
func (p *KafkaPublisher) PublishInvestmentRecorded(ctx context.Context, event InvestmentRecorded) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.UserID), 10)),
		Value: data,
	})
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishInvestmentRecorded(context.Context, InvestmentRecorded) error {
	return nil
}

func (NopPublisher) Close() error {
	return nil
}

// New picks the Kafka publisher when brokers are configured
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return NopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic)
}
