package realtime

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Bus. It only reaches listeners of the same
// process, which is what tests and single-instance deployments need.
type MemoryBus struct {
	mu        sync.RWMutex
	listeners map[string]map[*memoryListener]struct{}
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{listeners: make(map[string]map[*memoryListener]struct{})}
}

func (b *MemoryBus) Publish(ctx context.Context, topics ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, topic := range topics {
		for l := range b.listeners[topic] {
			notify(l.ch)
		}
	}
	return nil
}

func (b *MemoryBus) Listen(ctx context.Context, topics ...string) (Listener, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l := &memoryListener{bus: b, topics: topics, ch: make(chan struct{}, 1)}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, topic := range topics {
		set, ok := b.listeners[topic]
		if !ok {
			set = make(map[*memoryListener]struct{})
			b.listeners[topic] = set
		}
		set[l] = struct{}{}
	}
	return l, nil
}

// listenerCount is used by tests to check that Close releases listeners.
func (b *MemoryBus) listenerCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[topic])
}

type memoryListener struct {
	bus    *MemoryBus
	topics []string
	ch     chan struct{}
	once   sync.Once
}

func (l *memoryListener) C() <-chan struct{} {
	return l.ch
}

func (l *memoryListener) Close() error {
	l.once.Do(func() {
		l.bus.mu.Lock()
		defer l.bus.mu.Unlock()
		for _, topic := range l.topics {
			delete(l.bus.listeners[topic], l)
			if len(l.bus.listeners[topic]) == 0 {
				delete(l.bus.listeners, topic)
			}
		}
	})
	return nil
}
