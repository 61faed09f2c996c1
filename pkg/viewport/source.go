package viewport

import "sync"

// Source delivers viewport changes. The returned unsubscribe function is safe
// to call more than once.
type Source interface {
	Subscribe(fn func(Event)) (unsubscribe func())
	Current() Event
}

// Broadcaster is an in-memory Source fed by Publish. Front-ends that learn
// about resizes (terminal resize messages, SIGWINCH handlers) publish into it.
type Broadcaster struct {
	mu      sync.Mutex
	current Event
	nextID  int
	subs    map[int]func(Event)
}

var _ Source = (*Broadcaster)(nil)

// NewBroadcaster seeds the broadcaster with the initial viewport.
func NewBroadcaster(initial Event) *Broadcaster {
	return &Broadcaster{
		current: initial,
		subs:    make(map[int]func(Event)),
	}
}

// Current returns the last published event.
func (b *Broadcaster) Current() Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Subscribe registers fn for future events.
func (b *Broadcaster) Subscribe(fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish records ev and notifies subscribers outside the lock.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.Lock()
	b.current = ev
	subs := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Subscribers reports the number of active subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
