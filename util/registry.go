package util

import (
	"cmp"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/immutable"
)

// Registry is an append-only, name-keyed table.
//
// Writers are serialised by a mutex. Every successful write publishes a new
// immutable snapshot, so readers never lock and never observe a partially
// written declaration.
type Registry[K cmp.Ordered, V any] struct {
	mu       sync.Mutex
	snapshot atomic.Pointer[immutable.SortedMap[K, V]]
}

func NewRegistry[K cmp.Ordered, V any]() *Registry[K, V] {
	r := &Registry[K, V]{}
	r.snapshot.Store(immutable.NewSortedMap[K, V](nil))
	return r
}

func (r *Registry[K, V]) Get(key K) (V, bool) {
	return r.snapshot.Load().Get(key)
}

func (r *Registry[K, V]) Len() int {
	return r.snapshot.Load().Len()
}

// All iterates over a consistent snapshot of the registry, in key order
func (r *Registry[K, V]) All() iter.Seq2[K, V] {
	snapshot := r.snapshot.Load()
	return func(yield func(K, V) bool) {
		it := snapshot.Iterator()
		for !it.Done() {
			k, v, _ := it.Next()
			if !yield(k, v) {
				return
			}
		}
	}
}

// Update runs f while holding the writer lock.
// f receives the current snapshot, and returns the entries to add.
// If f returns an error, nothing is added.
func (r *Registry[K, V]) Update(f func(current *immutable.SortedMap[K, V]) ([]Pair[K, V], error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.snapshot.Load()
	entries, err := f(current)
	if err != nil {
		return err
	}
	next := current
	for _, entry := range entries {
		next = next.Set(entry.Fst, entry.Snd)
	}
	r.snapshot.Store(next)
	return nil
}
