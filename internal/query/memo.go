package query

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Revision numbers input snapshots. Revision 0 is never current.
type Revision uint64

// Runtime tracks the current revision shared by a set of memos.
type Runtime struct {
	rev atomic.Uint64
}

func NewRuntime() *Runtime {
	rt := &Runtime{}
	rt.rev.Store(1)
	return rt
}

// Revision returns the current input revision.
func (rt *Runtime) Revision() Revision {
	return Revision(rt.rev.Load())
}

// Bump starts a new revision, invalidating every memoized value.
func (rt *Runtime) Bump() Revision {
	return Revision(rt.rev.Add(1))
}

// Stats counts memo traffic.
type Stats struct {
	Hits        uint64
	Misses      uint64
	Evaluations uint64 // compute calls actually executed
}

type entry[V any] struct {
	rev   Revision
	value V
}

// Memo caches compute(key) per revision.
type Memo[K comparable, V any] struct {
	name    string
	rt      *Runtime
	mu      sync.RWMutex
	entries map[K]entry[V]
	group   singleflight.Group

	hits, misses, evals atomic.Uint64
}

// NewMemo creates an empty memo bound to rt. Keys must have a unique %v form;
// it is used to coalesce in-flight evaluations.
func NewMemo[K comparable, V any](rt *Runtime, name string) *Memo[K, V] {
	return &Memo[K, V]{
		name:    name,
		rt:      rt,
		entries: make(map[K]entry[V]),
	}
}

// Name returns the query name used in traces.
func (m *Memo[K, V]) Name() string { return m.name }

// Peek returns the value cached for key in the current revision.
func (m *Memo[K, V]) Peek(key K) (V, bool) {
	return m.peekAt(key, m.rt.Revision())
}

func (m *Memo[K, V]) peekAt(key K, rev Revision) (V, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || e.rev != rev {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Get returns the memoized value for key, computing it when the cache has no
// entry for the revision current at call time. cached reports whether the
// value was served without a new evaluation by this call.
//
// In-flight evaluations are shared only between callers of the same revision.
func (m *Memo[K, V]) Get(key K, compute func(K) V) (value V, cached bool) {
	rev := m.rt.Revision()
	if v, ok := m.peekAt(key, rev); ok {
		m.hits.Add(1)
		return v, true
	}
	m.misses.Add(1)

	evaluated := false
	res, _, _ := m.group.Do(fmt.Sprint(rev, "/", key), func() (any, error) {
		if v, ok := m.peekAt(key, rev); ok {
			return v, nil
		}
		evaluated = true
		m.evals.Add(1)
		v := compute(key)
		m.mu.Lock()
		if cur, ok := m.entries[key]; !ok || cur.rev <= rev {
			m.entries[key] = entry[V]{rev: rev, value: v}
		}
		m.mu.Unlock()
		return v, nil
	})
	value, _ = res.(V)
	return value, !evaluated
}

// Sweep drops entries computed for older revisions and returns how many were removed.
func (m *Memo[K, V]) Sweep() int {
	rev := m.rt.Revision()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if e.rev != rev {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, stale ones included.
func (m *Memo[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memo[K, V]) Stats() Stats {
	return Stats{
		Hits:        m.hits.Load(),
		Misses:      m.misses.Load(),
		Evaluations: m.evals.Load(),
	}
}
