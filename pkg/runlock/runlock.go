package runlock

import "sync"

// Keyed provides non-blocking per-key mutual exclusion. A single scheduler
// instance owns all programs, so the lock is in-process; a multi-instance
// deployment would need to externalize it.
type Keyed struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func New() *Keyed {
	return &Keyed{held: make(map[string]struct{})}
}

// TryAcquire takes the lock for key if it is free. It never blocks; callers
// that lose the race are expected to drop their trigger, not queue it.
func (k *Keyed) TryAcquire(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, taken := k.held[key]; taken {
		return false
	}
	k.held[key] = struct{}{}
	return true
}

// Release frees the lock for key. Releasing a key that is not held is a no-op.
func (k *Keyed) Release(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.held, key)
}
