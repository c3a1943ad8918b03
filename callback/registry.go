// Package callback maintains the process-wide registry of heap allocation
// observers. The heap interceptor reports every tracked allocation and free
// to this registry, which dispatches the notification to all currently
// registered callbacks in registration order.
//
// Registration and unregistration are NOT safe for concurrent use from
// multiple goroutines; callers that need that must serialize externally.
// This is a deliberate contract: the notification path is hot (it runs on
// every allocation) and must stay free of locks and of allocations.
package callback

// Callback receives a notification for every tracked allocation and free
// that occurs while it is registered. Implementations must not allocate
// through the interceptor from within their handlers.
type Callback interface {
	// OnAlloc is called when an allocation of the given size is tracked.
	OnAlloc(bytes int)
	// OnFree is called when a free of the given size is tracked.
	OnFree(bytes int)
}

// Registry is an ordered collection of registered callbacks plus a
// reentrancy guard. While the guard is held, notifications are dropped
// unconditionally: mutating the callback list may itself allocate (slice
// growth), and reporting that allocation back into the registry would
// re-enter the notification path. The registry's own bookkeeping is
// therefore invisible to all observers.
type Registry struct {
	callbacks []Callback
	critical  bool
}

// NewRegistry creates an empty registry. The initial capacity avoids slice
// growth for typical observer counts.
func NewRegistry() *Registry {
	return &Registry{callbacks: make([]Callback, 0, 8)}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry fed by the default heap
// interceptor. It is never nil and lives for the whole process.
func Default() *Registry { return defaultRegistry }

// enterCritical raises the reentrancy guard and returns the function that
// clears it. Callers must invoke the returned function on every exit path,
// typically via defer, so the guard can never leak.
func (r *Registry) enterCritical() func() {
	r.critical = true
	return func() { r.critical = false }
}

// Register appends the callback to the registry. Registering a callback
// that is already present has no effect. The list mutation happens under
// the reentrancy guard so that growing the backing slice is not reported
// to any observer.
func (r *Registry) Register(cb Callback) {
	defer r.enterCritical()()
	for _, registered := range r.callbacks {
		if registered == cb {
			return
		}
	}
	r.callbacks = append(r.callbacks, cb)
}

// Unregister removes the callback from the registry. Unregistering a
// callback that was never registered is a no-op.
func (r *Registry) Unregister(cb Callback) {
	defer r.enterCritical()()
	for i, registered := range r.callbacks {
		if registered == cb {
			r.callbacks = append(r.callbacks[:i], r.callbacks[i+1:]...)
			return
		}
	}
}

// Registered reports whether the callback is currently registered.
func (r *Registry) Registered(cb Callback) bool {
	for _, registered := range r.callbacks {
		if registered == cb {
			return true
		}
	}
	return false
}

// Len returns the number of registered callbacks.
func (r *Registry) Len() int { return len(r.callbacks) }

// NotifyAlloc dispatches an allocation of the given size to every
// registered callback in registration order. Dropped while the reentrancy
// guard is held. This path never allocates.
func (r *Registry) NotifyAlloc(bytes int) {
	if r.critical {
		return
	}
	for _, cb := range r.callbacks {
		cb.OnAlloc(bytes)
	}
}

// NotifyFree dispatches a free of the given size to every registered
// callback in registration order. Dropped while the reentrancy guard is
// held. This path never allocates.
func (r *Registry) NotifyFree(bytes int) {
	if r.critical {
		return
	}
	for _, cb := range r.callbacks {
		cb.OnFree(bytes)
	}
}
