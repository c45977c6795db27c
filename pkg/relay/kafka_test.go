package relay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type stubKafkaWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *stubKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *stubKafkaWriter) Close() error {
	w.closed = true
	return nil
}

func TestParseKafkaAddress(t *testing.T) {
	tests := []struct {
		address     string
		wantBrokers []string
		wantTopic   string
		wantErr     bool
	}{
		{"kafka://b1:9092/events", []string{"b1:9092"}, "events", false},
		{"kafka://b1:9092,b2:9092/events", []string{"b1:9092", "b2:9092"}, "events", false},
		{"b1:9092/events", []string{"b1:9092"}, "events", false},
		{"kafka://b1:9092", nil, "", true},
		{"kafka:///events", nil, "", true},
	}

	for _, tt := range tests {
		brokers, topic, err := parseKafkaAddress(tt.address)
		if tt.wantErr {
			var cfgErr *TargetConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("%s: expected *TargetConfigError, got %v", tt.address, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.address, err)
			continue
		}
		if topic != tt.wantTopic {
			t.Errorf("%s: topic = %q, want %q", tt.address, topic, tt.wantTopic)
		}
		if len(brokers) != len(tt.wantBrokers) {
			t.Errorf("%s: brokers = %v, want %v", tt.address, brokers, tt.wantBrokers)
			continue
		}
		for i := range brokers {
			if brokers[i] != tt.wantBrokers[i] {
				t.Errorf("%s: brokers = %v, want %v", tt.address, brokers, tt.wantBrokers)
			}
		}
	}
}

func TestKafkaDispatcherPublishesPayload(t *testing.T) {
	target := Target{
		Type:    TypeKafka,
		Address: "kafka://broker:9092/events",
		Headers: map[string]string{"origin": "svc-a"},
		Events:  []any{"E"},
	}

	d, err := NewKafkaDispatcher(target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stub := &stubKafkaWriter{}
	d.writer = stub

	if err := d.Dispatch(context.Background(), "E", Args{"id1"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(stub.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(stub.messages))
	}
	msg := stub.messages[0]

	if len(msg.Key) == 0 {
		t.Error("expected a generated message key")
	}

	var p Payload
	if err := json.Unmarshal(msg.Value, &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Event != "E" || len(p.Args) != 1 || p.Args[0] != "id1" {
		t.Errorf("unexpected payload: %+v", p)
	}

	if len(msg.Headers) != 1 || msg.Headers[0].Key != "origin" || string(msg.Headers[0].Value) != "svc-a" {
		t.Errorf("unexpected headers: %v", msg.Headers)
	}
}

func TestKafkaDispatcherWriteErrorPropagates(t *testing.T) {
	d, err := NewKafkaDispatcher(Target{Type: TypeKafka, Address: "kafka://b:9092/t", Events: []any{"E"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d.writer = &stubKafkaWriter{err: errors.New("broker down")}

	if err := d.Dispatch(context.Background(), "E", nil, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestKafkaDispatcherClose(t *testing.T) {
	d, err := NewKafkaDispatcher(Target{Type: TypeKafka, Address: "kafka://b:9092/t", Events: []any{"E"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stub := &stubKafkaWriter{}
	d.writer = stub

	if err := d.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stub.closed {
		t.Error("expected underlying writer to be closed")
	}
}
