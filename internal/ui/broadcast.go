package ui

import "sync"

// broadcaster pings subscribers when the diagram set changes. A slow
// subscriber misses intermediate pings but always sees the latest one.
type broadcaster struct {
	mu        sync.RWMutex
	listeners map[chan struct{}]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{listeners: make(map[chan struct{}]struct{})}
}

// subscribe returns a ping channel and the function that releases it.
func (b *broadcaster) subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	b.listeners[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *broadcaster) broadcast() {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (b *broadcaster) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
