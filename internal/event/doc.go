// Package event provides the per-view event bus that carries inbound view
// commands to the orchestrator.
//
// Every view controller owns its own [Bus]; buses never share state. The
// orchestrator is the component that subscribes to several buses, and it does
// so with the same [Handler] pointers, so one reaction can be bound to every
// view without the views knowing about each other.
//
// # Main Types
//
//   - [Bus]: synchronous name → handler-set dispatcher, inert after Dispose
//   - [Handler]: a callback whose identity is its pointer
//   - [Subscription]: the handle returned by [Bus.On]; Dispose unregisters
//
// # Handler Identity
//
// A bus keeps a set of handlers per event name. Registering the same *Handler
// twice for one event keeps a single entry. Two distinct Handlers built from
// the same function are two entries and both fire:
//
//	h := event.NewHandler("start", onStart)
//	bus.On("start", h)
//	bus.On("start", h)                                  // no-op
//	bus.On("start", event.NewHandler("start", onStart)) // second entry
//
// # Failure Isolation
//
// Handlers run synchronously in registration order. A handler that panics or
// returns an error is logged; the remaining handlers still run and Emit still
// counts it as invoked.
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Handlers run without the bus lock held, so
// they may register, unsubscribe or dispose the bus they are called from.
package event
