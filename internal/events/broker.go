// Package events fans state changes out to subscribers of a tenant.
package events

import (
	"sync"

	"github.com/google/logger"

	"secretsanta/internal/models"
)

const subscriberBuffer = 8

// Broker delivers events to every subscriber of the event's tenant.
// Publishing never blocks: a subscriber whose buffer is full misses the event.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan models.Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan models.Event]struct{})}
}

// Subscribe registers for tenant's events. The returned func unsubscribes
// and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe(tenant string) (<-chan models.Event, func()) {
	ch := make(chan models.Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[tenant] == nil {
		b.subs[tenant] = make(map[chan models.Event]struct{})
	}
	b.subs[tenant][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[tenant], ch)
			if len(b.subs[tenant]) == 0 {
				delete(b.subs, tenant)
			}
			close(ch)
		})
	}
}

// Publish sends ev to the subscribers of ev.Tenant.
func (b *Broker) Publish(ev models.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[ev.Tenant] {
		select {
		case ch <- ev:
		default:
			logger.Warningf("Dropped %s event for a slow subscriber of tenant %s", ev.Type, ev.Tenant)
		}
	}
}

// Subscribers reports how many subscribers tenant has.
func (b *Broker) Subscribers(tenant string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[tenant])
}
