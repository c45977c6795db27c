// Package integration provides inbound adapters that forward events
// received over an external transport into a relay bus.
//
// An adapter implements relay.Integration: the bus hands it an emit
// callback through Bus.SetupIntegration, and the adapter invokes that
// callback whenever its transport delivers an event. The wire shape is
// the same Payload relay itself sends outbound, so two processes each
// running a bus can relay events to one another symmetrically.
package integration

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/randalmurphal/relay/pkg/relay"
)

// DefaultRoute is the endpoint path the HTTP adapter serves by default.
const DefaultRoute = "/event"

// ErrNotBound is returned when an adapter runs before SetupIntegration
// has supplied the emit callback.
var ErrNotBound = errors.New("integration: adapter not bound to a bus")

// HTTP receives event payloads over an HTTP endpoint and re-emits them
// on the bound bus. It exposes a plain http.Handler so it mounts into
// any mux or framework; the server itself stays the caller's concern.
type HTTP struct {
	route  string
	logger *slog.Logger
	emit   relay.EmitFunc
}

// HTTPOption configures the HTTP adapter.
type HTTPOption func(*HTTP)

// WithRoute overrides the endpoint path (default "/event").
func WithRoute(route string) HTTPOption {
	return func(h *HTTP) {
		h.route = route
	}
}

// WithLogger sets a logger for rejected requests.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(h *HTTP) {
		h.logger = logger
	}
}

// NewHTTP creates an HTTP inbound adapter.
func NewHTTP(opts ...HTTPOption) *HTTP {
	h := &HTTP{route: DefaultRoute}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Setup implements relay.Integration.
func (h *HTTP) Setup(emit relay.EmitFunc) error {
	if emit == nil {
		return errors.New("integration: nil emit callback")
	}
	h.emit = emit
	return nil
}

// Route returns the endpoint path the adapter expects to be mounted at.
func (h *HTTP) Route() string {
	return h.route
}

// Mount registers the adapter's handler on a stdlib mux at its route.
func (h *HTTP) Mount(mux *http.ServeMux) {
	mux.Handle(h.route, h.Handler())
}

// Handler returns the http.Handler that decodes the event payload and
// forwards it to the bus.
func (h *HTTP) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if h.emit == nil {
			http.Error(w, "event bus not attached", http.StatusServiceUnavailable)
			return
		}

		var p relay.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			if h.logger != nil {
				h.logger.Warn("rejected inbound event",
					slog.String("error", err.Error()))
			}
			http.Error(w, "invalid event payload", http.StatusBadRequest)
			return
		}
		if p.Event == "" {
			http.Error(w, "event is required", http.StatusBadRequest)
			return
		}

		h.emit(r.Context(), p.Event, p.Args, p.Kwargs)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	})
}
