package event

import (
	"fmt"
	"runtime/debug"
	"slices"
	"sync"

	"github.com/Iron-Ham/ralphui/internal/logging"
)

// HandlerFunc reacts to an emitted event. data is whatever the emitter passed,
// possibly nil. A returned error is logged and does not stop dispatch.
type HandlerFunc func(data any) error

// Handler is a registered event callback.
//
// Handlers are compared by pointer: registering the same *Handler twice for an
// event keeps one entry, while two Handlers wrapping the same function are
// distinct entries and both fire. Create a Handler once and share the pointer
// when the same reaction should be bound to several buses.
type Handler struct {
	name string
	fn   HandlerFunc
}

// NewHandler wraps fn. name is only used in log output.
func NewHandler(name string, fn HandlerFunc) *Handler {
	return &Handler{name: name, fn: fn}
}

// Name returns the handler's log name.
func (h *Handler) Name() string { return h.name }

// Bus is a synchronous, per-instance event bus mapping event names to an
// ordered set of handlers. After Dispose it is inert: On registers nothing and
// Emit invokes nothing.
type Bus struct {
	logger *logging.Logger

	mu       sync.RWMutex
	handlers map[string][]*Handler // event -> handlers in registration order
	disposed bool
}

// NewBus creates an empty bus. A nil logger discards handler failures.
func NewBus(logger *logging.Logger) *Bus {
	return &Bus{
		logger:   logging.OrNop(logger).WithComponent("event"),
		handlers: make(map[string][]*Handler),
	}
}

// On registers h for event and returns a Subscription whose Dispose removes
// exactly that handler. On a disposed bus, or with a nil handler, nothing is
// registered and the returned Subscription is inert.
func (b *Bus) On(event string, h *Handler) *Subscription {
	if h == nil {
		return &Subscription{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disposed {
		return &Subscription{}
	}
	if !slices.Contains(b.handlers[event], h) {
		b.handlers[event] = append(b.handlers[event], h)
	}
	return &Subscription{bus: b, event: event, handler: h}
}

// Emit calls every handler registered for event, in registration order, and
// returns how many were invoked. Handlers that panic or return an error are
// logged and counted; their siblings still run. Unknown events invoke nothing.
// A disposed bus returns 0.
func (b *Bus) Emit(event string, data any) int {
	b.mu.RLock()
	if b.disposed {
		b.mu.RUnlock()
		return 0
	}
	handlers := slices.Clone(b.handlers[event])
	b.mu.RUnlock()

	for _, h := range handlers {
		b.safeCall(event, h, data)
	}
	return len(handlers)
}

// safeCall invokes a handler and recovers from any panic so one misbehaving
// handler cannot block delivery to the others.
func (b *Bus) safeCall(event string, h *Handler, data any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event", event,
				"handler", h.name,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	if err := h.fn(data); err != nil {
		b.logger.Warn("event handler failed", "event", event, "handler", h.name, "error", err)
	}
}

// Dispose removes every registration and makes the bus inert. Idempotent.
func (b *Bus) Dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disposed = true
	clear(b.handlers)
}

// IsDisposed reports whether Dispose has been called.
func (b *Bus) IsDisposed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.disposed
}

// HandlerCount returns the number of handlers registered for event.
func (b *Bus) HandlerCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}

// SubscriptionCount returns the total number of registrations.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, hs := range b.handlers {
		count += len(hs)
	}
	return count
}

func (b *Bus) remove(event string, h *Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	hs := b.handlers[event]
	i := slices.Index(hs, h)
	if i < 0 {
		return
	}
	hs = slices.Delete(hs, i, i+1)
	if len(hs) == 0 {
		delete(b.handlers, event)
		return
	}
	b.handlers[event] = hs
}

// Subscription is the handle returned by On.
type Subscription struct {
	bus     *Bus
	event   string
	handler *Handler
	once    sync.Once
}

// Dispose unregisters the handler. Safe to call repeatedly and on an inert
// Subscription.
func (s *Subscription) Dispose() {
	if s == nil || s.bus == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.event, s.handler)
	})
}

// Active reports whether the Subscription was registered on a live bus.
func (s *Subscription) Active() bool {
	return s != nil && s.bus != nil
}
