package event

import (
	"reflect"
	"sync"
)

// Bus is a typed publish/subscribe hub. Delivery is synchronous: a handler
// runs inside Emit, within the tick that produced the event. Audio and UI
// collaborators subscribe at startup; nothing is buffered across ticks.
//
// Emit is called only from the tick body; Subscribe may be called from any
// goroutine during startup, hence the handler-map lock.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[reflect.Type][]any),
	}
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// Emit delivers the event to every subscribed handler, in subscription order.
func Emit[T any](b *Bus, ev T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.RLock()
	handlers := b.handlers[t]
	b.mu.RUnlock()
	for _, h := range handlers {
		h.(func(T))(ev)
	}
}
