// Package events provides a synchronous, single-threaded publish/subscribe bus.
//
// A Bus maps an event name to an ordered list of handlers. Emit invokes the
// handlers registered for a name inline, on the caller's goroutine, in
// registration order. Names are matched exactly; there are no wildcards.
//
// The bus does no locking. It is owned by whoever owns the model that emits
// through it, the same way the model itself is owned.
package events

// Handler receives one emitted event.
type Handler[E any] func(E)

// Handle identifies one registration. Handles are unique per Bus across all
// names, so registering the same function twice yields two handles and two
// invocations per emit.
type Handle uint64

type listener[E any] struct {
	handle  Handle
	fn      Handler[E]
	once    bool
	fired   bool
	removed bool
}

// Bus is a named-event dispatcher. The zero value is ready to use.
type Bus[K comparable, E any] struct {
	listeners map[K][]*listener[E]
	next      Handle
}

// New returns an empty bus.
func New[K comparable, E any]() *Bus[K, E] {
	return &Bus[K, E]{listeners: make(map[K][]*listener[E])}
}

// On registers fn for name and returns its handle.
func (b *Bus[K, E]) On(name K, fn Handler[E]) Handle {
	return b.add(name, fn, false)
}

// Once registers fn for a single invocation. The registration is dropped
// before fn runs, so an emit of the same name from inside fn does not reach
// it again.
func (b *Bus[K, E]) Once(name K, fn Handler[E]) Handle {
	return b.add(name, fn, true)
}

func (b *Bus[K, E]) add(name K, fn Handler[E], once bool) Handle {
	if b.listeners == nil {
		b.listeners = make(map[K][]*listener[E])
	}
	b.next++
	l := &listener[E]{handle: b.next, fn: fn, once: once}
	b.listeners[name] = append(b.listeners[name], l)
	return l.handle
}

// Off removes the registration h from name. Unknown handles are ignored.
// A handler removed while an emit is in flight is not invoked for the rest
// of that emit.
func (b *Bus[K, E]) Off(name K, h Handle) {
	ls := b.listeners[name]
	for i, l := range ls {
		if l.handle != h {
			continue
		}
		l.removed = true
		next := make([]*listener[E], 0, len(ls)-1)
		next = append(next, ls[:i]...)
		next = append(next, ls[i+1:]...)
		if len(next) == 0 {
			delete(b.listeners, name)
		} else {
			b.listeners[name] = next
		}
		return
	}
}

// Emit invokes every handler registered for name with event and reports
// whether any handler was registered when the emit started. Handlers added
// during the emit are first invoked by the next one.
//
// A panicking handler is not recovered: it aborts delivery to the handlers
// after it and unwinds into the caller of Emit.
func (b *Bus[K, E]) Emit(name K, event E) bool {
	ls := b.listeners[name]
	if len(ls) == 0 {
		return false
	}
	// Off replaces the slice rather than editing it, so ls stays a stable
	// snapshot for this emit.
	for _, l := range ls {
		if l.removed {
			continue
		}
		if l.once {
			if l.fired {
				continue
			}
			l.fired = true
			b.Off(name, l.handle)
		}
		l.fn(event)
	}
	return true
}

// Count returns the number of handlers registered for name.
func (b *Bus[K, E]) Count(name K) int {
	return len(b.listeners[name])
}

// Clear drops every handler registered for name.
func (b *Bus[K, E]) Clear(name K) {
	for _, l := range b.listeners[name] {
		l.removed = true
	}
	delete(b.listeners, name)
}
