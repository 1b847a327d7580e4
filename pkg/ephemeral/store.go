// Package ephemeral provides an in-memory keyed store with TTL eviction and
// atomic per-key read-modify-write. It backs the wizard, panel-selection and
// assignment-cooldown state, none of which may survive a process restart.
package ephemeral

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Store is a concurrency-safe keyed store whose entries expire after a fixed
// idle TTL. All mutation goes through the store's mutex, so a read-then-write
// performed inside Update cannot interleave with another goroutine's for the
// same key.
type Store[V any] struct {
	mu  sync.Mutex
	m   map[string]entry[V]
	ttl time.Duration

	// now is swappable for tests.
	now func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewStore creates a store whose entries expire ttl after their last write. A
// background sweeper reclaims expired entries every sweep interval; expired
// entries are also never returned by reads, so the sweep is purely for
// memory.
func NewStore[V any](ttl, sweep time.Duration) *Store[V] {
	s := &Store[V]{
		m:    make(map[string]entry[V]),
		ttl:  ttl,
		now:  time.Now,
		stop: make(chan struct{}),
	}

	go s.sweeper(sweep)
	return s
}

// Close stops the background sweeper. Safe to call more than once.
func (s *Store[V]) Close() {
	s.once.Do(func() {
		close(s.stop)
	})
}

func (s *Store[V]) sweeper(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.Sweep()
		}
	}
}

// Sweep removes every expired entry.
func (s *Store[V]) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.m {
		if now.Sub(e.storedAt) > s.ttl {
			delete(s.m, k)
		}
	}
}

// Get returns the live value for the key. Expired entries are treated as
// absent.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.m[key]
	if !ok || s.now().Sub(e.storedAt) > s.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores the value for the key, resetting its TTL. Any previous value is
// overwritten.
func (s *Store[V]) Put(key string, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = entry[V]{value: v, storedAt: s.now()}
}

// Delete removes the key. Absent keys are a no-op.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

// Update atomically applies fn to the live value for the key. fn receives the
// current value (the zero value when absent or expired) and reports whether
// the returned value should be stored. A store resets the TTL; declining
// leaves the entry untouched. The boolean result is fn's verdict, so callers
// can use Update as a compare-and-set.
func (s *Store[V]) Update(key string, fn func(cur V, ok bool) (V, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.m[key]
	if ok && s.now().Sub(e.storedAt) > s.ttl {
		delete(s.m, key)
		ok = false
	}

	var cur V
	if ok {
		cur = e.value
	}

	next, store := fn(cur, ok)
	if store {
		s.m[key] = entry[V]{value: next, storedAt: s.now()}
	}
	return store
}

// Len reports the number of live entries.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	now := s.now()
	for _, e := range s.m {
		if now.Sub(e.storedAt) <= s.ttl {
			n++
		}
	}
	return n
}

// SetClock swaps the store's time source. Test hook.
func (s *Store[V]) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
