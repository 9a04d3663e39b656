package server

import (
	"encoding/json"
	"sync"

	"github.com/playperu/spottheball/internal/spotball"
)

const subscriberBuffer = 16

// Broker fans competition events out to SSE subscribers. It satisfies the
// publisher interfaces of the lifecycle and winner services.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe registers a subscriber for one competition. The returned func
// removes it and must be called exactly once.
func (b *Broker) Subscribe(competitionID string) (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	b.mu.Lock()
	set, ok := b.subs[competitionID]
	if !ok {
		set = make(map[chan []byte]struct{})
		b.subs[competitionID] = set
	}
	set[ch] = struct{}{}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.subs[competitionID], ch)
		if len(b.subs[competitionID]) == 0 {
			delete(b.subs, competitionID)
		}
		b.mu.Unlock()
	}
}

// Subscribers counts the open subscriptions of a competition.
func (b *Broker) Subscribers(competitionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[competitionID])
}

// Publish never blocks; a subscriber with a full buffer misses the event.
func (b *Broker) Publish(competitionID string, event spotball.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[competitionID] {
		select {
		case ch <- data:
		default:
		}
	}
}
