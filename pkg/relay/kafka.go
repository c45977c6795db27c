package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// kafkaWriter is the slice of kafka.Writer the dispatcher needs.
// Narrowing to an interface keeps tests free of a running broker.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaDispatcher publishes event payloads to a Kafka topic. The
// target address names the brokers and topic:
//
//	kafka://broker1:9092,broker2:9092/events
//
// Target headers are carried as Kafka message headers. Each message is
// keyed with a fresh UUID so partitioning spreads evenly.
type KafkaDispatcher struct {
	target Target
	topic  string
	writer kafkaWriter
}

// NewKafkaDispatcher creates a dispatcher for a kafka target.
func NewKafkaDispatcher(target Target) (*KafkaDispatcher, error) {
	brokers, topic, err := parseKafkaAddress(target.Address)
	if err != nil {
		return nil, err
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &KafkaDispatcher{target: target, topic: topic, writer: w}, nil
}

// Dispatch implements Dispatcher.
func (d *KafkaDispatcher) Dispatch(ctx context.Context, event string, args Args, kwargs KWArgs) error {
	value, err := json.Marshal(NewPayload(event, args, kwargs))
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(uuid.New().String()),
		Value: value,
	}
	for k, v := range d.target.Headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", d.topic, err)
	}
	return nil
}

// Close implements io.Closer.
func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}

// parseKafkaAddress splits "kafka://b1,b2/topic" (scheme optional)
// into broker list and topic.
func parseKafkaAddress(address string) ([]string, string, error) {
	rest := strings.TrimPrefix(address, "kafka://")

	hostPart, topic, ok := strings.Cut(rest, "/")
	if !ok || topic == "" {
		return nil, "", &TargetConfigError{
			Field:   "address",
			Message: fmt.Sprintf("kafka address %q must include a topic, e.g. kafka://broker:9092/topic", address),
		}
	}

	var brokers []string
	for _, b := range strings.Split(hostPart, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, "", &TargetConfigError{
			Field:   "address",
			Message: fmt.Sprintf("kafka address %q has no brokers", address),
		}
	}

	return brokers, topic, nil
}
