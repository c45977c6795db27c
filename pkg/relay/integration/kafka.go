package integration

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/randalmurphal/relay/pkg/relay"
)

// kafkaReader is the slice of kafka.Reader the adapter needs.
type kafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Kafka consumes event payloads from a Kafka topic and re-emits them
// on the bound bus. It pairs with the outbound kafka dispatch strategy:
// a bus on one side publishes, a bus on the other side consumes.
type Kafka struct {
	reader kafkaReader
	logger *slog.Logger
	emit   relay.EmitFunc
}

// KafkaConfig configures the Kafka inbound adapter.
type KafkaConfig struct {
	// Brokers is the broker address list. Required.
	Brokers []string

	// Topic is the topic to consume. Required.
	Topic string

	// GroupID names the consumer group. Optional; without it the
	// reader consumes from the latest offset of partition 0.
	GroupID string

	// Logger receives decode warnings. Optional.
	Logger *slog.Logger
}

// NewKafka creates a Kafka inbound adapter.
func NewKafka(cfg KafkaConfig) *Kafka {
	return &Kafka{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.Brokers,
			Topic:   cfg.Topic,
			GroupID: cfg.GroupID,
		}),
		logger: cfg.Logger,
	}
}

// Setup implements relay.Integration.
func (k *Kafka) Setup(emit relay.EmitFunc) error {
	if emit == nil {
		return errors.New("integration: nil emit callback")
	}
	k.emit = emit
	return nil
}

// Run consumes messages until ctx is cancelled or the reader is
// closed. Messages that do not decode as event payloads are logged and
// skipped; consumption continues.
func (k *Kafka) Run(ctx context.Context) error {
	if k.emit == nil {
		return ErrNotBound
	}

	for {
		msg, err := k.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		var p relay.Payload
		if err := json.Unmarshal(msg.Value, &p); err != nil || p.Event == "" {
			if k.logger != nil {
				k.logger.Warn("skipped inbound message",
					slog.String("topic", msg.Topic),
					slog.Int64("offset", msg.Offset),
				)
			}
			continue
		}

		k.emit(ctx, p.Event, p.Args, p.Kwargs)
	}
}

// Close releases the underlying reader. Run returns after Close.
func (k *Kafka) Close() error {
	return k.reader.Close()
}
