package config

import (
	"fmt"

	"github.com/randalmurphal/relay/pkg/relay"
)

// Targets parses the remote_targets section into relay targets.
// Structural errors (a non-map entry, a non-string address) fail here;
// semantic validation (required fields, non-empty event sets) stays
// with relay.Bus.RegisterTarget.
func (c Config) Targets() ([]relay.Target, error) {
	raw := c.Slice("remote_targets", nil)
	if raw == nil {
		return nil, nil
	}

	targets := make([]relay.Target, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("remote_targets[%d]: expected a mapping, got %T", i, item)
		}
		entry := New(m)

		target := relay.Target{
			Type:    entry.String("type", ""),
			Address: entry.String("address", ""),
			Headers: entry.StringMap("headers", nil),
			Events:  entry.Slice("events", nil),
		}

		if entry.Has("address") && target.Address == "" {
			return nil, fmt.Errorf("remote_targets[%d]: address must be a string", i)
		}

		targets = append(targets, target)
	}
	return targets, nil
}

// Bus builds a relay.Config from the file-loadable bus settings:
// dispatch_timeout, max_concurrent_dispatches, and sync_dispatch.
// Everything else on relay.Config (clients, callbacks, observability)
// is code-level and left at its zero value for the caller to fill.
func (c Config) Bus() relay.Config {
	return relay.Config{
		DispatchTimeout:         c.Duration("dispatch_timeout", relay.DefaultConfig.DispatchTimeout),
		MaxConcurrentDispatches: c.Int("max_concurrent_dispatches", relay.DefaultConfig.MaxConcurrentDispatches),
		SyncDispatch:            c.Bool("sync_dispatch", false),
	}
}
