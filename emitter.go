package voiceai

import "sync"

// Subscription identifies one registered handler so it can be removed with Off.
type Subscription uint64

// Handler receives events synchronously on the emitting goroutine. A slow
// handler delays everything behind it, including transport reads.
type Handler func(Event)

type listener struct {
	id   Subscription
	once bool
	fn   Handler
}

// Emitter is a per-adapter-instance observer registry. Handlers for an event
// type are invoked synchronously, in registration order, with no global state
// shared between instances. The zero value is ready to use.
type Emitter struct {
	mu        sync.Mutex
	nextID    Subscription
	listeners map[EventType][]listener
}

// NewEmitter returns an empty registry.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// On registers a handler for every occurrence of t.
func (e *Emitter) On(t EventType, fn Handler) Subscription {
	return e.add(t, fn, false)
}

// Once registers a handler that is removed after its first invocation.
func (e *Emitter) Once(t EventType, fn Handler) Subscription {
	return e.add(t, fn, true)
}

func (e *Emitter) add(t EventType, fn Handler, once bool) Subscription {
	if fn == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[EventType][]listener)
	}
	e.nextID++
	id := e.nextID
	e.listeners[t] = append(e.listeners[t], listener{id: id, once: once, fn: fn})
	return id
}

// Off removes the handler registered under sub for event type t. Unknown
// subscriptions are ignored.
func (e *Emitter) Off(t EventType, sub Subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ls := e.listeners[t]
	for i, l := range ls {
		if l.id == sub {
			e.listeners[t] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// Emit delivers evt to every handler registered for evt.Type, in registration
// order, on the calling goroutine. One-shot handlers are deregistered before
// invocation so a re-entrant Emit cannot fire them twice.
func (e *Emitter) Emit(evt Event) {
	e.mu.Lock()
	ls := e.listeners[evt.Type]
	if len(ls) == 0 {
		e.mu.Unlock()
		return
	}
	run := make([]Handler, 0, len(ls))
	kept := ls[:0]
	for _, l := range ls {
		run = append(run, l.fn)
		if !l.once {
			kept = append(kept, l)
		}
	}
	e.listeners[evt.Type] = kept
	e.mu.Unlock()

	for _, fn := range run {
		fn(evt)
	}
}

// ListenerCount reports how many handlers are registered for t.
func (e *Emitter) ListenerCount(t EventType) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[t])
}
