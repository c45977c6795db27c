package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	relayerrors "github.com/randalmurphal/relay/pkg/relay/errors"
	"github.com/randalmurphal/relay/pkg/relay/observability"
)

// Config configures bus behavior.
type Config struct {
	// DispatchTimeout bounds each remote dispatch attempt.
	// Default: 10s
	DispatchTimeout time.Duration

	// MaxConcurrentDispatches bounds parallel dispatch across targets.
	// Default: 8. Zero uses the default; negative means unlimited.
	MaxConcurrentDispatches int

	// SyncDispatch makes Emit block until every dispatch attempt for
	// the emission has completed. Default: false (dispatch runs in the
	// background; use Wait or Close to drain).
	SyncDispatch bool

	// Retry applies to url dispatch attempts. Default: no retry; a
	// dispatch failure is final for that emission.
	Retry relayerrors.RetryConfig

	// HTTPClient performs outbound calls for the url strategy.
	HTTPClient Doer

	// Logger receives structured emit/dispatch logs. Nil disables logging.
	Logger *slog.Logger

	// Metrics records emit and dispatch metrics.
	// Default: observability.NoopMetrics{}.
	Metrics observability.MetricsRecorder

	// Spans traces emissions and dispatches.
	// Default: observability.NoopSpanManager{}.
	Spans observability.SpanManager

	// OnError is the reporting side channel for listener and dispatch
	// failures. Failures are logged and counted regardless; OnError
	// additionally hands the typed error to the caller.
	OnError func(error)
}

// DefaultConfig provides reasonable defaults.
var DefaultConfig = Config{
	DispatchTimeout:         10 * time.Second,
	MaxConcurrentDispatches: 8,
}

// Bus routes emitted events to local listeners and configured remote
// targets. Construct it with New and pass it explicitly to whatever
// needs to emit; there is no package-level instance.
type Bus struct {
	config    Config
	listeners *listenerRegistry
	targets   *targetRegistry
	factory   *Factory

	sem    chan struct{}
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New creates a bus and registers the initial targets, failing fast on
// the first invalid one.
func New(cfg Config, targets ...Target) (*Bus, error) {
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = DefaultConfig.DispatchTimeout
	}
	if cfg.MaxConcurrentDispatches == 0 {
		cfg.MaxConcurrentDispatches = DefaultConfig.MaxConcurrentDispatches
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.DispatchTimeout}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}
	if cfg.Spans == nil {
		cfg.Spans = observability.NoopSpanManager{}
	}

	b := &Bus{
		config:    cfg,
		listeners: newListenerRegistry(),
		targets:   newTargetRegistry(),
		factory: NewFactory(FactoryConfig{
			HTTPClient: cfg.HTTPClient,
			Retry:      cfg.Retry,
		}),
	}

	if cfg.MaxConcurrentDispatches > 0 {
		b.sem = make(chan struct{}, cfg.MaxConcurrentDispatches)
	}

	for _, t := range targets {
		if err := b.RegisterTarget(t); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// RegisterListener registers fn for the given event. The event may be
// a string or an enum-like value; see NormalizeKey.
func (b *Bus) RegisterListener(event any, fn Listener) {
	b.listeners.register(NormalizeKey(event), fn)
}

// On returns a registration wrapper for the given event: it registers
// the function it receives and hands it back unchanged, so it can wrap
// a declaration.
//
//	handler := bus.On("order.created")(func(ctx context.Context, args relay.Args, kwargs relay.KWArgs) error {
//	    ...
//	})
func (b *Bus) On(event any) func(Listener) Listener {
	return func(fn Listener) Listener {
		b.RegisterListener(event, fn)
		return fn
	}
}

// RegisterTarget validates and registers a remote target. Invalid
// targets are rejected synchronously with *TargetConfigError.
func (b *Bus) RegisterTarget(t Target) error {
	return b.targets.register(t)
}

// RegisterStrategy adds a dispatch strategy for a custom destination
// type tag.
func (b *Bus) RegisterStrategy(typ string, c Constructor) {
	b.factory.RegisterStrategy(typ, c)
}

// Strategies returns the registered destination type tags.
func (b *Bus) Strategies() []string {
	return b.factory.Strategies()
}

// Emit routes an event: every listener registered for it runs first,
// synchronously and in registration order, then the event is dispatched
// to every subscribed remote target. Listener and dispatch failures are
// isolated and reported through Config.OnError, the logger, and
// metrics; Emit itself never fails because of them.
//
// Dispatch runs in parallel across targets. With the default
// configuration Emit returns once dispatch has been issued; set
// Config.SyncDispatch to block until every attempt completes.
func (b *Bus) Emit(ctx context.Context, event any, args Args, kwargs KWArgs) {
	key := NormalizeKey(event)

	ctx, span := b.config.Spans.StartEmitSpan(ctx, key)

	notified := b.listeners.notify(ctx, key, args, kwargs, func(err error) {
		observability.LogListenerError(b.config.Logger, key, err)
		b.config.Metrics.RecordListenerError(ctx, key)
		if b.config.OnError != nil {
			b.config.OnError(err)
		}
	})

	matched := b.targets.matching(key)

	var emissionWG sync.WaitGroup
	for _, target := range matched {
		target := target
		b.wg.Add(1)
		emissionWG.Add(1)
		go func() {
			defer b.wg.Done()
			defer emissionWG.Done()

			if b.sem != nil {
				b.sem <- struct{}{}
				defer func() { <-b.sem }()
			}

			b.dispatchOne(ctx, key, target, args, kwargs)
		}()
	}

	if b.config.SyncDispatch {
		emissionWG.Wait()
	}

	observability.LogEmit(b.config.Logger, key, notified, len(matched))
	b.config.Metrics.RecordEmit(ctx, key, notified, len(matched))
	b.config.Spans.EndSpanWithError(span, nil)
}

// dispatchOne resolves and invokes the dispatcher for one target. All
// failure modes end here: they are reported, never propagated.
func (b *Bus) dispatchOne(ctx context.Context, key string, target Target, args Args, kwargs KWArgs) {
	if !b.config.SyncDispatch {
		// Detach from the emitter's cancellation; the attempt is still
		// bounded by the dispatch timeout below.
		ctx = context.WithoutCancel(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, b.config.DispatchTimeout)
	defer cancel()

	ctx, span := b.config.Spans.StartDispatchSpan(ctx, key, target.Type, target.Address)
	start := time.Now()

	dispatcher, err := b.factory.Resolve(target)
	if err == nil {
		err = dispatcher.Dispatch(ctx, key, args, kwargs)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = &relayerrors.TimeoutError{
			Operation: fmt.Sprintf("%s dispatch to %s", target.Type, target.Address),
			Duration:  b.config.DispatchTimeout.String(),
		}
	}
	elapsed := time.Since(start)

	b.config.Spans.EndSpanWithError(span, err)
	b.config.Metrics.RecordDispatch(ctx, target.Type, elapsed, err)

	if err != nil {
		derr := &DispatchError{Target: target, Event: key, Err: err}
		observability.LogDispatchError(b.config.Logger, key, target.Type, target.Address, err)
		if b.config.OnError != nil {
			b.config.OnError(derr)
		}
		return
	}

	observability.LogDispatch(b.config.Logger, key, target.Type, target.Address, float64(elapsed.Milliseconds()))
}

// Wait blocks until all outstanding dispatches have completed or ctx
// is done. Useful in tests and during graceful shutdown.
func (b *Bus) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains outstanding dispatches and releases cached dispatcher
// resources. The bus should not be used after Close.
func (b *Bus) Close(ctx context.Context) error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil // Already closed
	}

	waitErr := b.Wait(ctx)
	closeErr := b.factory.Close()
	return errors.Join(waitErr, closeErr)
}

// SetupIntegration binds an inbound adapter to this bus: the adapter
// receives an EmitFunc and invokes it whenever its transport delivers
// an event. The adapter's transport lifecycle stays its own concern.
func (b *Bus) SetupIntegration(i Integration) error {
	return i.Setup(func(ctx context.Context, event string, args Args, kwargs KWArgs) {
		b.Emit(ctx, event, args, kwargs)
	})
}
