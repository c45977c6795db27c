package relay

import (
	"sync"
)

// Built-in destination type tags. Additional tags can be registered on
// the bus with RegisterStrategy.
const (
	TypeURL     = "url"
	TypeKafka   = "kafka"
	TypeRedis   = "redis"
	TypeJournal = "journal"
)

// Target is an externally addressed destination subscribed to a subset
// of events. Two targets may share a type and address with different
// event sets; each is dispatched to independently.
type Target struct {
	// Type selects the dispatch strategy ("url", "kafka", ...).
	Type string `json:"type" yaml:"type"`

	// Address is the destination endpoint. Its format is strategy
	// specific: a webhook URL, a kafka:// or redis:// URL, or a file
	// path for the journal strategy.
	Address string `json:"address" yaml:"address"`

	// Headers are transport headers attached to outbound calls.
	// Optional; only some strategies use them.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Events is the non-empty set of event keys this target subscribes
	// to. Entries may be strings or enum-like values; they are
	// normalized with NormalizeKey at registration. An empty set is a
	// configuration error, not "subscribe to all".
	Events []any `json:"events" yaml:"events"`
}

// registeredTarget pairs a validated Target with its normalized
// subscription set.
type registeredTarget struct {
	target Target
	events map[string]struct{}
}

// targetRegistry owns the ordered collection of configured targets.
type targetRegistry struct {
	mu      sync.RWMutex
	targets []registeredTarget
}

func newTargetRegistry() *targetRegistry {
	return &targetRegistry{}
}

// register validates the target and appends it. Validation failures
// are synchronous and leave the registry unchanged.
func (r *targetRegistry) register(t Target) error {
	if t.Type == "" {
		return &TargetConfigError{Field: "type", Message: "destination type is required"}
	}
	if t.Address == "" {
		return &TargetConfigError{Field: "address", Message: "address is required"}
	}
	if len(t.Events) == 0 {
		return &TargetConfigError{Field: "events", Message: "at least one subscribed event is required"}
	}

	if t.Headers == nil {
		t.Headers = map[string]string{}
	}

	events := make(map[string]struct{}, len(t.Events))
	for _, e := range t.Events {
		events[NormalizeKey(e)] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = append(r.targets, registeredTarget{target: t, events: events})
	return nil
}

// matching returns the targets subscribed to key, in registration
// order. The returned slice is a snapshot; concurrent registration
// takes effect on the next call.
func (r *targetRegistry) matching(key string) []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Target
	for _, rt := range r.targets {
		if _, ok := rt.events[key]; ok {
			out = append(out, rt.target)
		}
	}
	return out
}
