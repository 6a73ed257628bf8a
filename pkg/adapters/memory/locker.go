package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/beadnet/pkg/ports"
)

// Locker implements ports.DistributedLocker within a single process.
type Locker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewLocker creates a new in-process locker.
func NewLocker() *Locker {
	return &Locker{
		locks: make(map[string]chan struct{}),
	}
}

// Lock blocks until key is free. The lock is released after ttl even if
// the UnlockFunc is never called; a non-positive ttl never expires.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	for {
		l.mu.Lock()
		held, busy := l.locks[key]
		if !busy {
			released := make(chan struct{})
			l.locks[key] = released
			l.mu.Unlock()
			return l.releaser(key, released, ttl), nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-held:
		}
	}
}

func (l *Locker) releaser(key string, released chan struct{}, ttl time.Duration) ports.UnlockFunc {
	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.locks[key] == released {
				delete(l.locks, key)
			}
			close(released)
		})
	}
	if ttl > 0 {
		timer := time.AfterFunc(ttl, release)
		return func(ctx context.Context) error {
			timer.Stop()
			release()
			return nil
		}
	}
	return func(ctx context.Context) error {
		release()
		return nil
	}
}
