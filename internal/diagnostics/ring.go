package diagnostics

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultCapacity = 200

// Entry is one recorded attempt or failure.
type Entry struct {
	Seq     uint64         `json:"seq"`
	At      time.Time      `json:"at"`
	Kind    string         `json:"kind"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Ring keeps the most recent entries in memory, evicting the oldest first.
// Nothing reads it for correctness; it only backs admin introspection.
type Ring struct {
	mu       sync.Mutex
	buf      []Entry
	next     int
	full     bool
	seq      uint64
	subs     map[int]chan Entry
	nextSub  int
	capacity int
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{
		buf:      make([]Entry, capacity),
		subs:     make(map[int]chan Entry),
		capacity: capacity,
	}
}

func (r *Ring) Capacity() int { return r.capacity }

// Record appends an entry and fans it out to subscribers without blocking.
func (r *Ring) Record(kind, level, message string, fields map[string]any) Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	e := Entry{
		Seq:     r.seq,
		At:      time.Now().UTC(),
		Kind:    kind,
		Level:   level,
		Message: message,
		Fields:  copyFields(fields),
	}

	r.buf[r.next] = e
	r.next = (r.next + 1) % r.capacity
	if r.next == 0 {
		r.full = true
	}

	for _, ch := range r.subs {
		select {
		case ch <- e:
		default:
			// Slow subscriber; it will see a gap in Seq.
		}
	}
	return e
}

// Snapshot returns the retained entries, oldest first.
func (r *Ring) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]Entry, r.next)
		copy(out, r.buf[:r.next])
		return out
	}
	out := make([]Entry, 0, r.capacity)
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)
	return out
}

func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return r.capacity
	}
	return r.next
}

// Subscribe streams entries recorded after the call. The returned cancel
// func must be called to release the subscription.
func (r *Ring) Subscribe(buffer int) (<-chan Entry, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Entry, buffer)

	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
			close(ch)
		})
	}
}

func copyFields(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Hook mirrors warning and error log entries into the ring.
type Hook struct {
	ring *Ring
}

func NewHook(r *Ring) *Hook { return &Hook{ring: r} }

func (h *Hook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel}
}

func (h *Hook) Fire(e *logrus.Entry) error {
	kind := "log"
	if c, ok := e.Data["component"].(string); ok && c != "" {
		kind = c
	}
	fields := make(map[string]any, len(e.Data))
	for k, v := range e.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		fields[k] = v
	}
	h.ring.Record(kind, e.Level.String(), e.Message, fields)
	return nil
}
