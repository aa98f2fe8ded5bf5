// Package events fans typing lifecycle events out to subscribers.
package events

import (
	"sync"
	"time"

	"github.com/rbright/ghostkeys/internal/fsm"
)

type Kind string

const (
	KindStatus    Kind = "status"
	KindCountdown Kind = "countdown"
	KindProgress  Kind = "progress"
	KindError     Kind = "error"
)

// Lossy reports whether a subscriber that falls behind may miss events of
// this kind. Later progress and countdown events supersede earlier ones.
func (k Kind) Lossy() bool {
	return k == KindProgress || k == KindCountdown
}

// Progress is the derived typing progress of the loaded content.
type Progress struct {
	Current int     `json:"current"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// NewProgress derives Percent; it is 0 when total is 0.
func NewProgress(current, total int) Progress {
	p := Progress{Current: current, Total: total}
	if total > 0 {
		p.Percent = float64(current) / float64(total) * 100
	}
	return p
}

// Event is one lifecycle notification.
type Event struct {
	Kind      Kind      `json:"kind"`
	RunID     string    `json:"run_id,omitempty"`
	Status    fsm.State `json:"status,omitempty"`
	Previous  fsm.State `json:"previous,omitempty"`
	Remaining int       `json:"remaining,omitempty"`
	Progress  *Progress `json:"progress,omitempty"`
	Message   string    `json:"message,omitempty"`
	At        time.Time `json:"at"`
}

// Broker delivers events to every subscriber without blocking the publisher.
// A subscriber that falls behind its buffer misses lossy events first; status
// and error events displace queued progress to get through.
type Broker struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
	now    func() time.Time
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan Event), now: time.Now}
}

// Publish stamps ev and delivers it. Publishing after Close is a no-op.
func (b *Broker) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = b.now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		deliver(ch, ev)
	}
}

// deliver must be called with the broker lock held; the broker is the only
// sender on ch.
func deliver(ch chan Event, ev Event) {
	select {
	case ch <- ev:
		return
	default:
	}
	if ev.Kind.Lossy() {
		return
	}

	queued := make([]Event, 0, cap(ch))
drain:
	for len(queued) < cap(ch) {
		select {
		case old := <-ch:
			queued = append(queued, old)
		default:
			break drain
		}
	}

	if len(queued) > 0 {
		drop := 0
		for i, old := range queued {
			if old.Kind.Lossy() {
				drop = i
				break
			}
		}
		queued = append(queued[:drop], queued[drop+1:]...)
	}
	for _, pending := range append(queued, ev) {
		select {
		case ch <- pending:
		default:
		}
	}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if existing, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(existing)
			}
		})
	}
}

// Close closes every subscriber channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
