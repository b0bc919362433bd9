/*
Package pubsub fans storage change events out to every live subscriber.

The registry owns the set of subscriber channels; the broadcaster pumps the
storage change feed into it.  Both the HTTP push transports and the optional
AMQP relay hang off this package.
*/
package pubsub

import "sync"

// DefaultBuffer is the per-subscriber pending event capacity.
const DefaultBuffer = 200

/*
Subscriber receives serialized change events on C for its registered
lifetime.  C is closed by Unregister; the owning transport must stop reading
once it observes the close.
*/
type Subscriber struct {
	C chan []byte
}

/*
Registry is a thread-safe set of active subscribers, explicitly owned and
passed by reference to the broadcaster and the transport layer.
*/
type Registry struct {
	mu      sync.Mutex
	subs    map[*Subscriber]struct{}
	buffer  int
	dropped uint64
}

func NewRegistry(buffer int) *Registry {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Registry{
		subs:   make(map[*Subscriber]struct{}),
		buffer: buffer,
	}
}

// Register creates a subscriber with a bounded pending channel and adds it to
// the active set.
func (r *Registry) Register() *Subscriber {
	s := &Subscriber{C: make(chan []byte, r.buffer)}

	r.mu.Lock()
	r.subs[s] = struct{}{}
	r.mu.Unlock()

	return s
}

// Unregister removes the subscriber and closes its channel.  Calling it again
// for the same subscriber is a no-op.
func (r *Registry) Unregister(s *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, active := r.subs[s]; active {
		delete(r.subs, s)
		close(s.C)
	}
}

/*
Broadcast pushes msg to every registered subscriber without blocking.  A
subscriber whose channel is full misses this message; slow subscribers never
stall fast ones or the broadcaster.

Every push is non-blocking, so holding the lock across the whole loop cannot
stall registration, and no send can race an Unregister closing the channel.
*/
func (r *Registry) Broadcast(msg []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for s := range r.subs {
		select {
		case s.C <- msg:
		default:
			r.dropped++
		}
	}
}

// Len reports the number of active subscribers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Dropped reports how many messages have been dropped on full channels since
// the registry was created.
func (r *Registry) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
