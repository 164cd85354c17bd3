package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e *entry[V]) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Store is a thread-safe map whose entries expire after a TTL. The eviction
// hook runs for every entry that leaves the store other than through Take,
// always outside the store's lock.
type Store[K comparable, V any] struct {
	mu      sync.Mutex
	items   map[K]*entry[V]
	ttl     time.Duration
	onEvict func(K, V)
	now     func() time.Time

	evictions int64
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewStore creates a store and starts a sweeper that runs every interval.
// A non-positive interval disables the sweeper; expired entries are then only
// dropped on access or by Sweep.
func NewStore[K comparable, V any](ttl, interval time.Duration, onEvict func(K, V)) *Store[K, V] {
	s := &Store[K, V]{
		items:   make(map[K]*entry[V]),
		ttl:     ttl,
		onEvict: onEvict,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if interval > 0 {
		go s.cleanup(interval)
	} else {
		close(s.done)
	}

	return s
}

func (s *Store[K, V]) cleanup(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *Store[K, V]) evict(evicted map[K]V) {
	if s.onEvict == nil {
		return
	}
	for k, v := range evicted {
		s.onEvict(k, v)
	}
}

// Sweep removes all expired entries and returns how many were evicted.
func (s *Store[K, V]) Sweep() int {
	now := s.now()
	evicted := make(map[K]V)

	s.mu.Lock()
	for k, e := range s.items {
		if e.expired(now) {
			evicted[k] = e.value
			delete(s.items, k)
		}
	}
	s.evictions += int64(len(evicted))
	s.mu.Unlock()

	s.evict(evicted)
	return len(evicted)
}

// Set stores value under key with a fresh TTL. A replaced value is evicted.
func (s *Store[K, V]) Set(key K, value V) {
	s.mu.Lock()
	old, existed := s.items[key]
	s.items[key] = &entry[V]{value: value, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()

	if existed && s.onEvict != nil {
		s.onEvict(key, old.value)
	}
}

// Get returns the live value for key. An expired entry is evicted on access.
func (s *Store[K, V]) Get(key K) (V, bool) {
	var zero V

	s.mu.Lock()
	e, ok := s.items[key]
	if !ok {
		s.mu.Unlock()
		return zero, false
	}
	if e.expired(s.now()) {
		delete(s.items, key)
		s.evictions++
		s.mu.Unlock()
		if s.onEvict != nil {
			s.onEvict(key, e.value)
		}
		return zero, false
	}
	s.mu.Unlock()

	return e.value, true
}

// Touch extends the TTL of a live entry.
func (s *Store[K, V]) Touch(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok || e.expired(s.now()) {
		return false
	}
	e.expiresAt = s.now().Add(s.ttl)
	return true
}

// Take removes key and hands its value to the caller without running the
// eviction hook.
func (s *Store[K, V]) Take(key K) (V, bool) {
	var zero V

	s.mu.Lock()
	e, ok := s.items[key]
	if ok {
		delete(s.items, key)
	}
	s.mu.Unlock()

	if !ok {
		return zero, false
	}
	return e.value, true
}

// Delete removes key, running the eviction hook. Deleting a missing key is a no-op.
func (s *Store[K, V]) Delete(key K) bool {
	s.mu.Lock()
	e, ok := s.items[key]
	if ok {
		delete(s.items, key)
	}
	s.mu.Unlock()

	if ok && s.onEvict != nil {
		s.onEvict(key, e.value)
	}
	return ok
}

// Clear evicts every entry.
func (s *Store[K, V]) Clear() {
	s.mu.Lock()
	evicted := make(map[K]V, len(s.items))
	for k, e := range s.items {
		evicted[k] = e.value
	}
	s.items = make(map[K]*entry[V])
	s.mu.Unlock()

	s.evict(evicted)
}

// Len returns the number of entries, expired or not.
func (s *Store[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Stats reports store occupancy.
func (s *Store[K, V]) Stats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expired := 0
	for _, e := range s.items {
		if e.expired(now) {
			expired++
		}
	}

	return map[string]interface{}{
		"total_items":   len(s.items),
		"expired_items": expired,
		"active_items":  len(s.items) - expired,
		"evictions":     s.evictions,
		"ttl_seconds":   s.ttl.Seconds(),
	}
}

// Close stops the sweeper and evicts every entry. It waits for the sweeper
// until ctx is done. Calling Close more than once is safe.
func (s *Store[K, V]) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		close(s.stop)
	})

	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.Clear()
	return nil
}
