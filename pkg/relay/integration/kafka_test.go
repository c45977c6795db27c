package integration

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/randalmurphal/relay/pkg/relay"
)

// stubKafkaReader feeds a fixed message sequence, then EOF.
type stubKafkaReader struct {
	messages []kafka.Message
	closed   bool
}

func (s *stubKafkaReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	if len(s.messages) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := s.messages[0]
	s.messages = s.messages[1:]
	return msg, nil
}

func (s *stubKafkaReader) Close() error {
	s.closed = true
	return nil
}

func TestKafkaRunEmitsDecodedMessages(t *testing.T) {
	reader := &stubKafkaReader{messages: []kafka.Message{
		{Value: []byte(`{"event":"order.created","args":["id1"],"kwargs":{}}`)},
		{Value: []byte(`{"event":"order.shipped","args":["id1"],"kwargs":{"carrier":"dhl"}}`)},
	}}
	adapter := &Kafka{reader: reader}

	var events []string
	var kwargs []relay.KWArgs
	err := adapter.Setup(func(ctx context.Context, event string, a relay.Args, kw relay.KWArgs) {
		events = append(events, event)
		kwargs = append(kwargs, kw)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := adapter.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 2 || events[0] != "order.created" || events[1] != "order.shipped" {
		t.Fatalf("events = %v", events)
	}
	if kwargs[1]["carrier"] != "dhl" {
		t.Errorf("kwargs = %v", kwargs[1])
	}
}

func TestKafkaRunSkipsUndecodableMessages(t *testing.T) {
	reader := &stubKafkaReader{messages: []kafka.Message{
		{Value: []byte(`garbage`)},
		{Value: []byte(`{"args":["no event"]}`)},
		{Value: []byte(`{"event":"ok"}`)},
	}}
	adapter := &Kafka{reader: reader}

	var events []string
	_ = adapter.Setup(func(ctx context.Context, event string, a relay.Args, kw relay.KWArgs) {
		events = append(events, event)
	})

	if err := adapter.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0] != "ok" {
		t.Errorf("events = %v, want [ok]", events)
	}
}

func TestKafkaRunUnbound(t *testing.T) {
	adapter := &Kafka{reader: &stubKafkaReader{}}

	if err := adapter.Run(context.Background()); !errors.Is(err, ErrNotBound) {
		t.Errorf("expected ErrNotBound, got %v", err)
	}
}

func TestKafkaRunStopsOnCancel(t *testing.T) {
	adapter := &Kafka{reader: &stubKafkaReader{}}
	_ = adapter.Setup(func(context.Context, string, relay.Args, relay.KWArgs) {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := adapter.Run(ctx); err != nil {
		t.Errorf("expected nil after cancellation, got %v", err)
	}
}

func TestKafkaClose(t *testing.T) {
	reader := &stubKafkaReader{}
	adapter := &Kafka{reader: reader}

	if err := adapter.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reader.closed {
		t.Error("expected underlying reader to be closed")
	}
}
