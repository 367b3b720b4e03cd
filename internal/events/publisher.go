package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"country-service/internal/metrics"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	DefaultTopic       = "countries.refreshed"
	EventTypeRefreshed = "countries.refreshed"
)

// RefreshEvent is emitted after every successful reconciliation.
type RefreshEvent struct {
	EventID        string    `json:"event_id"`
	Type           string    `json:"type"`
	RecordsWritten int       `json:"records_written"`
	TotalCountries int64     `json:"total_countries"`
	RefreshedAt    time.Time `json:"refreshed_at"`
	ArtifactRef    string    `json:"artifact_ref,omitempty"`
}

type Publisher interface {
	PublishRefreshed(ctx context.Context, ev RefreshEvent) error
}

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaWriter builds a synchronous writer; one event per run does not need batching.
func NewKafkaWriter(brokers []string, topic string, logger *zap.Logger) *kafka.Writer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		Logger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Debug(fmt.Sprintf(msg, args...))
		}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Warn(fmt.Sprintf(msg, args...))
		}),
	}
}

type KafkaPublisher struct {
	writer MessageWriter
	logger *zap.Logger
}

func NewKafkaPublisher(writer MessageWriter, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) PublishRefreshed(ctx context.Context, ev RefreshEvent) error {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	ev.Type = EventTypeRefreshed

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal refresh event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte("countries"),
		Value: payload,
		Time:  ev.RefreshedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
			{Key: "event_id", Value: []byte(ev.EventID)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.PublishErrors.Inc()
		return fmt.Errorf("publish refresh event: %w", err)
	}

	p.logger.Info("refresh event published",
		zap.String("event_id", ev.EventID),
		zap.Int("records_written", ev.RecordsWritten),
	)
	return nil
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishRefreshed(context.Context, RefreshEvent) error { return nil }
