package cartControllers

import (
	"fmt"
	"sync"
)

// Inflight is a keyed lock table serializing quantity mutations per logical
// cart line. While a key is held, further mutations for the same line are
// dropped rather than queued; mutations on different lines do not block each
// other. Release must run on every exit path.
type Inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewInflight() *Inflight {
	return &Inflight{keys: make(map[string]struct{})}
}

// TryAcquire marks the key in-flight. It returns false if the key is already
// held, in which case the caller must treat the mutation as a no-op.
func (f *Inflight) TryAcquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, held := f.keys[key]; held {
		return false
	}
	f.keys[key] = struct{}{}
	return true
}

// Release frees the key regardless of how the mutation settled.
func (f *Inflight) Release(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
}

// lineKey identifies one logical cart line: the product, scoped to the user.
func lineKey(userID string, productID uint) string {
	return fmt.Sprintf("%s:%d", userID, productID)
}
