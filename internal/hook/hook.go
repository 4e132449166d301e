package hook

import "sync"

// Conn identifies a single registration on a Hook. It is returned by
// Connect and consumed by Disconnect. The zero Conn is never issued.
type Conn int

type observer[T any] struct {
	id Conn
	fn func(T)
}

// Hook is a synchronous signal/slot style notification channel.
// Observers are invoked in registration order. Connect, Disconnect,
// Pause and Resume are serialized by an internal lock; Emit snapshots
// the observer list under that lock and runs callbacks outside it, so
// a callback may safely connect or disconnect observers.
type Hook[T any] struct {
	mu     sync.Mutex
	name   string
	obs    []observer[T]
	nextID Conn
	paused bool
}

// New creates a Hook. The name is only used for diagnostics and may be empty.
func New[T any](name string) *Hook[T] {
	return &Hook[T]{name: name, nextID: 1}
}

// Name returns the diagnostic name given at construction.
func (h *Hook[T]) Name() string { return h.name }

// Connect registers fn and returns a token for later Disconnect.
// The same function may be connected more than once; each registration
// is a distinct observer.
func (h *Hook[T]) Connect(fn func(T)) Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.obs = append(h.obs, observer[T]{id: id, fn: fn})
	return id
}

// Disconnect removes the registration identified by c. Unknown tokens
// are ignored.
func (h *Hook[T]) Disconnect(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, o := range h.obs {
		if o.id == c {
			h.obs = append(h.obs[:i], h.obs[i+1:]...)
			return
		}
	}
}

// Pause prevents the hook from emitting until Resume is called.
func (h *Hook[T]) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = true
}

// Resume re-enables emission after Pause.
func (h *Hook[T]) Resume() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = false
}

// Emit calls every connected observer with v, in registration order.
// Emissions while paused are dropped, not queued.
func (h *Hook[T]) Emit(v T) {
	h.mu.Lock()
	if h.paused {
		h.mu.Unlock()
		return
	}
	snapshot := make([]observer[T], len(h.obs))
	copy(snapshot, h.obs)
	h.mu.Unlock()

	for _, o := range snapshot {
		o.fn(v)
	}
}

// Len reports the number of connected observers.
func (h *Hook[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.obs)
}
