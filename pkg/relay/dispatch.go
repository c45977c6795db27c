package relay

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	relayerrors "github.com/randalmurphal/relay/pkg/relay/errors"
	"github.com/randalmurphal/relay/pkg/relay/registry"
)

// Dispatcher translates an emission into a transport-specific outbound
// call for one remote target. Implementations bound to a single target
// identity may be cached and invoked concurrently, so they must be
// safe for concurrent use.
type Dispatcher interface {
	Dispatch(ctx context.Context, event string, args Args, kwargs KWArgs) error
}

// DispatcherFunc adapts a plain function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, event string, args Args, kwargs KWArgs) error

// Dispatch implements Dispatcher.
func (f DispatcherFunc) Dispatch(ctx context.Context, event string, args Args, kwargs KWArgs) error {
	return f(ctx, event, args, kwargs)
}

// Constructor builds a dispatcher bound to the given target. It is
// called lazily, at most once per distinct target identity (type,
// address, headers) per factory.
type Constructor func(target Target) (Dispatcher, error)

// FactoryConfig configures the built-in dispatch strategies.
type FactoryConfig struct {
	// HTTPClient performs outbound calls for the url strategy.
	// Defaults to a stdlib client with a 10s timeout.
	HTTPClient Doer

	// Retry applies to url dispatch attempts. Zero value means no retry.
	Retry relayerrors.RetryConfig
}

// dispatcherKey identifies a cached dispatcher. Targets sharing a
// type, address, and header set share one dispatcher instance; a
// target with different headers gets its own, so caching never changes
// what a target sends.
type dispatcherKey struct {
	typ     string
	address string
	headers string
}

func newDispatcherKey(t Target) dispatcherKey {
	return dispatcherKey{typ: t.Type, address: t.Address, headers: canonicalHeaders(t.Headers)}
}

// canonicalHeaders renders a header map in sorted order so equal maps
// compare equal as cache key components.
func canonicalHeaders(headers map[string]string) string {
	if len(headers) == 0 {
		return ""
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(headers[k])
		b.WriteByte('\n')
	}
	return b.String()
}

// Factory resolves a target's type tag to a dispatcher, memoizing
// instances per target identity.
type Factory struct {
	strategies *registry.Registry[string, Constructor]

	mu    sync.Mutex
	cache map[dispatcherKey]Dispatcher
}

// NewFactory creates a factory with the built-in strategies registered:
// url, kafka, redis, and journal.
func NewFactory(cfg FactoryConfig) *Factory {
	f := &Factory{
		strategies: registry.New[string, Constructor](),
		cache:      make(map[dispatcherKey]Dispatcher),
	}

	f.RegisterStrategy(TypeURL, func(t Target) (Dispatcher, error) {
		return NewURLDispatcher(t, cfg.HTTPClient, cfg.Retry), nil
	})
	f.RegisterStrategy(TypeKafka, func(t Target) (Dispatcher, error) {
		return NewKafkaDispatcher(t)
	})
	f.RegisterStrategy(TypeRedis, func(t Target) (Dispatcher, error) {
		return NewRedisDispatcher(t)
	})
	f.RegisterStrategy(TypeJournal, func(t Target) (Dispatcher, error) {
		return NewJournalDispatcher(t.Address)
	})

	return f
}

// RegisterStrategy adds or replaces the constructor for a type tag.
// Replacing a strategy does not invalidate dispatchers already cached
// under that tag.
func (f *Factory) RegisterStrategy(typ string, c Constructor) {
	f.strategies.Register(typ, c)
}

// Strategies returns the registered type tags.
func (f *Factory) Strategies() []string {
	return f.strategies.Keys()
}

// Resolve returns the dispatcher for a target, constructing it on
// first use. An unknown type tag yields *UnsupportedTypeError; the
// caller isolates that failure to the single target.
func (f *Factory) Resolve(target Target) (Dispatcher, error) {
	ctor, ok := f.strategies.Get(target.Type)
	if !ok {
		return nil, &UnsupportedTypeError{Type: target.Type}
	}

	key := newDispatcherKey(target)

	f.mu.Lock()
	defer f.mu.Unlock()

	if d, ok := f.cache[key]; ok {
		return d, nil
	}

	d, err := ctor(target)
	if err != nil {
		return nil, err
	}
	f.cache[key] = d
	return d, nil
}

// Close releases every cached dispatcher that holds resources.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var firstErr error
	for key, d := range f.cache {
		if closer, ok := d.(io.Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		delete(f.cache, key)
	}
	return firstErr
}
