package benchmarks

import (
	"context"
	"testing"

	"github.com/randalmurphal/relay/pkg/relay"
)

// noopListener is a listener that does nothing.
func noopListener(context.Context, relay.Args, relay.KWArgs) error {
	return nil
}

// mustBus builds a synchronous bus or fails the benchmark.
func mustBus(b *testing.B, cfg relay.Config, targets ...relay.Target) *relay.Bus {
	b.Helper()
	cfg.SyncDispatch = true
	bus, err := relay.New(cfg, targets...)
	if err != nil {
		b.Fatal(err)
	}
	return bus
}

// BenchmarkEmit_NoListeners measures the cost of an emission nobody
// receives.
func BenchmarkEmit_NoListeners(b *testing.B) {
	bus := mustBus(b, relay.Config{})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus.Emit(ctx, "bench", nil, nil)
	}
}

// BenchmarkEmit_1Listener measures a single-listener emission.
func BenchmarkEmit_1Listener(b *testing.B) {
	bus := mustBus(b, relay.Config{})
	bus.RegisterListener("bench", noopListener)
	ctx := context.Background()
	args := relay.Args{"id"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus.Emit(ctx, "bench", args, nil)
	}
}

// BenchmarkEmit_10Listeners measures fan-out across ten listeners.
func BenchmarkEmit_10Listeners(b *testing.B) {
	bus := mustBus(b, relay.Config{})
	for i := 0; i < 10; i++ {
		bus.RegisterListener("bench", noopListener)
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus.Emit(ctx, "bench", nil, nil)
	}
}

// BenchmarkEmit_1Target measures dispatch to one in-process target.
func BenchmarkEmit_1Target(b *testing.B) {
	bus := mustBus(b, relay.Config{},
		relay.Target{Type: "noop", Address: "a", Events: []any{"bench"}},
	)
	bus.RegisterStrategy("noop", func(relay.Target) (relay.Dispatcher, error) {
		return relay.DispatcherFunc(func(context.Context, string, relay.Args, relay.KWArgs) error {
			return nil
		}), nil
	})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus.Emit(ctx, "bench", nil, nil)
	}
}

// BenchmarkEmit_EnumKey measures key normalization for non-string keys.
func BenchmarkEmit_EnumKey(b *testing.B) {
	type benchEvent string
	const key benchEvent = "bench"

	bus := mustBus(b, relay.Config{})
	bus.RegisterListener(key, noopListener)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus.Emit(ctx, key, nil, nil)
	}
}
