package network

import (
	"log/slog"
	"sync"

	"github.com/aretw0/beadnet/pkg/domain"
)

// defaultSubscriberBuffer is used when Subscribe is called with a non-positive buffer.
const defaultSubscriberBuffer = 64

// broadcaster fans events out to subscribers without ever blocking the publisher.
type broadcaster struct {
	mu     sync.RWMutex
	subs   map[chan domain.Event]struct{}
	logger *slog.Logger
}

func newBroadcaster(logger *slog.Logger) *broadcaster {
	return &broadcaster{
		subs:   make(map[chan domain.Event]struct{}),
		logger: logger,
	}
}

func (b *broadcaster) Subscribe(buffer int) (<-chan domain.Event, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	ch := make(chan domain.Event, buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, ch)
			close(ch)
		})
	}
}

func (b *broadcaster) Broadcast(e domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Drop event if the subscriber is too slow
			b.logger.Warn("subscriber buffer full, dropping event", "type", e.Base().Type)
		}
	}
}
