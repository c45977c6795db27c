package relay

import (
	"fmt"
	"reflect"
)

// Args is the ordered positional argument list attached to an emission.
type Args []any

// KWArgs is the named argument set attached to an emission.
type KWArgs map[string]any

// Payload is the wire representation of an emitted event.
//
// The field names form a fixed contract: a remote process receiving
// this shape (for example through an integration adapter) can replay
// the event on its own bus with identical arguments.
type Payload struct {
	Event  string `json:"event"`
	Args   Args   `json:"args"`
	Kwargs KWArgs `json:"kwargs"`
}

// NewPayload builds a Payload for the given event key and arguments.
// Nil argument collections are replaced with empty ones so the wire
// body always carries both fields as [] and {} rather than null.
func NewPayload(event string, args Args, kwargs KWArgs) Payload {
	if args == nil {
		args = Args{}
	}
	if kwargs == nil {
		kwargs = KWArgs{}
	}
	return Payload{Event: event, Args: args, Kwargs: kwargs}
}

// NormalizeKey reduces an event identifier to its canonical string form.
//
// Plain strings pass through unchanged. Values whose underlying kind is
// string (named string types used as event enums) reduce to their
// underlying value, so a member of `type OrderEvent string` and the
// equivalent literal collide intentionally. Other values fall back to
// fmt.Stringer, then fmt.Sprint.
func NormalizeKey(event any) string {
	switch v := event.(type) {
	case nil:
		return ""
	case string:
		return v
	}

	if rv := reflect.ValueOf(event); rv.Kind() == reflect.String {
		return rv.String()
	}

	if s, ok := event.(fmt.Stringer); ok {
		return s.String()
	}

	return fmt.Sprint(event)
}
