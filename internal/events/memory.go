package events

import (
	"context"
	"sync"
)

// MemoryBroker is the in-process Broker used when no REDIS_URL is set.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *MemoryBroker) Subscribe(instance string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[instance] == nil {
		b.subs[instance] = map[chan Event]struct{}{}
	}
	b.subs[instance][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *MemoryBroker) Unsubscribe(instance string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.subs[instance]
	if _, ok := m[ch]; !ok {
		return
	}
	delete(m, ch)
	if len(m) == 0 {
		delete(b.subs, instance)
	}
	close(ch)
}

func (b *MemoryBroker) Publish(_ context.Context, instance string, evt Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[instance] {
		select {
		case ch <- evt:
		default:
		}
	}
	return nil
}
