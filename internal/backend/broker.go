package backend

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// subBuffer is the per-subscriber queue depth. When a subscriber falls
// behind, the oldest queued event is dropped: pushes are whole snapshots,
// so only the latest matters.
const subBuffer = 16

type subscription struct {
	topic Topic
	ch    chan Event
}

// Broker fans daemon events out to per-topic subscribers. Both transports
// publish into one broker; delivery order within a topic follows publish
// order.
type Broker struct {
	mu     sync.Mutex
	subs   map[int]*subscription
	nextID int
	closed bool
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: map[int]*subscription{}}
}

// Subscribe registers a stream for one topic. The returned cancel is
// idempotent; after it runs the channel is closed and receives nothing
// further.
func (b *Broker) Subscribe(topic Topic) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscription{topic: topic, ch: make(chan Event, subBuffer)}
	if b.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub.ch)
			}
		})
	}
	return sub.ch, cancel
}

// Publish delivers ev to every subscriber of its topic without blocking.
// A full subscriber queue loses its oldest event to make room.
func (b *Broker) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for _, sub := range b.subs {
		if sub.topic != ev.Topic {
			continue
		}
		for {
			select {
			case sub.ch <- ev:
			default:
				select {
				case <-sub.ch:
					log.Warn().Str("topic", string(ev.Topic)).Msg("Slow subscriber, dropped oldest event")
				default:
				}
				continue
			}
			break
		}
	}
}

// Close closes every subscriber channel. Further publishes and
// subscriptions are no-ops. Idempotent.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
}
