// Package registry provides a generic thread-safe registry for values
// indexed by key.
//
// Registry is built for read-heavy workloads using sync.RWMutex. relay
// uses it to hold the dispatch-strategy set, where the classic factory
// pattern applies:
//
//	type Constructor func(target Target) (Dispatcher, error)
//
//	strategies := registry.New[string, Constructor]()
//	strategies.Register("url", newURLDispatcher)
//	strategies.Register("kafka", newKafkaDispatcher)
//
//	// Later, resolve a dispatcher by type tag
//	ctor, ok := strategies.Get(target.Type)
//	if ok {
//	    d, err := ctor(target)
//	    // use d...
//	}
//
// All methods are safe for concurrent use. Range iterates over a
// snapshot, so registering during iteration does not affect the
// iteration in progress.
package registry
