package relay

import "context"

// EmitFunc is the emission entry point a bus hands to an integration
// adapter. It behaves exactly like Bus.Emit with a pre-normalized key.
type EmitFunc func(ctx context.Context, event string, args Args, kwargs KWArgs)

// Integration is an inbound adapter: a component that converts a
// received transport trigger (an HTTP request, a consumed queue
// message) into a call on the bus's emission entry point.
//
// Setup is called once by Bus.SetupIntegration with the bound EmitFunc.
// The adapter owns its transport lifecycle; the bus only supplies the
// callback. Concrete adapters live in the integration package.
type Integration interface {
	Setup(emit EmitFunc) error
}
