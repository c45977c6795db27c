package relay

import (
	"context"
	"fmt"
	"sync"
)

// Listener is an in-process callback invoked synchronously when its
// event is emitted. The argument collections are passed through from
// Emit unmodified. A returned error is reported through the bus error
// channel but does not stop later listeners or remote dispatch.
type Listener func(ctx context.Context, args Args, kwargs KWArgs) error

// listenerRegistry maps event keys to their listeners, preserving
// registration order per key.
type listenerRegistry struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
}

func newListenerRegistry() *listenerRegistry {
	return &listenerRegistry{
		listeners: make(map[string][]Listener),
	}
}

// register appends fn to the list for key. The same function may be
// registered multiple times and will be invoked once per registration.
func (r *listenerRegistry) register(key string, fn Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[key] = append(r.listeners[key], fn)
}

// snapshot returns a copy of the current listener list for key.
// Iterating the copy is stable against concurrent registration.
func (r *listenerRegistry) snapshot(key string) []Listener {
	r.mu.RLock()
	defer r.mu.RUnlock()
	current := r.listeners[key]
	if len(current) == 0 {
		return nil
	}
	out := make([]Listener, len(current))
	copy(out, current)
	return out
}

// notify invokes every listener registered for key, in registration
// order. Failures are passed to report and do not stop the iteration.
// Returns the number of listeners invoked.
func (r *listenerRegistry) notify(ctx context.Context, key string, args Args, kwargs KWArgs, report func(error)) int {
	fns := r.snapshot(key)
	for _, fn := range fns {
		if err := invokeListener(ctx, fn, args, kwargs); err != nil {
			report(&ListenerError{Event: key, Err: err})
		}
	}
	return len(fns)
}

// invokeListener calls a single listener, converting a panic into an
// error so one misbehaving callback cannot take down the emitter.
func invokeListener(ctx context.Context, fn Listener, args Args, kwargs KWArgs) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return fn(ctx, args, kwargs)
}
