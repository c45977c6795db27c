/*
Package relay provides an in-process event bus with best-effort fan-out
to external destinations.

# Overview

relay routes named events to two kinds of consumers: local listeners
(callbacks registered in the same process) and remote targets (webhook
URLs, message queues, or other destinations configured up front). A
single Emit call notifies every listener registered for the event, then
dispatches the event to every remote target subscribed to it.

The library is a process-local router, not a message broker:
  - Listeners run synchronously, in registration order, before Emit returns
  - Remote dispatch is best-effort with per-target failure isolation
  - Delivery is at-most-once; there is no persistence of undelivered events

# Basic Usage

Construct a bus, register listeners, and emit:

	bus, err := relay.New(relay.DefaultConfig, relay.Target{
	    Type:    relay.TypeURL,
	    Address: "https://hooks.example.com/orders",
	    Events:  []any{"order.created"},
	})
	if err != nil {
	    log.Fatal(err)
	}
	defer bus.Close(context.Background())

	bus.RegisterListener("order.created", func(ctx context.Context, args relay.Args, kwargs relay.KWArgs) error {
	    fmt.Println("order created:", args[0])
	    return nil
	})

	bus.Emit(context.Background(), "order.created", relay.Args{"ord-1"}, nil)

Remote targets receive a JSON body with a fixed shape, so a remote
process running its own bus can replay the event locally:

	{"event": "order.created", "args": ["ord-1"], "kwargs": {}}

# Event Keys

Events are identified by opaque string keys. Emit and the registration
calls accept any value: plain strings pass through, named string types
(the usual Go rendering of an event enum) reduce to their underlying
string, and fmt.Stringer values use their String method. An enum member
whose value is "order.created" and the literal "order.created" address
the same listeners and targets.

# Remote Targets and Dispatch Strategies

Each target carries a destination type tag that selects a dispatch
strategy. Built-in strategies:

  - url: HTTP POST of the event payload, carrying the target's headers
  - kafka: publish to a Kafka topic (address kafka://broker1,broker2/topic)
  - redis: publish on a Redis channel named after the event key
  - journal: append to a local SQLite event log

Additional strategies can be added with RegisterStrategy. A dispatcher
failure, timeout, or unknown type tag is isolated to its target and
surfaced through Config.OnError, the logger, and metrics; it never
fails the Emit call or blocks other targets.

# Concurrency

Registration calls and Emit are safe for concurrent use. Dispatch runs
in parallel across targets, bounded by Config.MaxConcurrentDispatches,
and is asynchronous by default; call Wait or Close to drain outstanding
dispatches, or set Config.SyncDispatch to make Emit block until every
attempt completes. Listener notification always completes before Emit
returns.
*/
package relay
