package catalog

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// FillTimeout bounds a shared fetch. The fetch runs detached from the
// cancellation of the caller that started it.
const FillTimeout = 30 * time.Second

// State is the fill state of a Memo.
type State int

const (
	// StateEmpty means the next Get fetches.
	StateEmpty State = iota
	// StatePopulated means Get returns the stored value.
	StatePopulated
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	default:
		return "unknown"
	}
}

// Memo holds a lazily fetched value. Concurrent Gets on an empty Memo share
// one fetch. Failed fetches are not stored.
type Memo[T any] struct {
	fetch func(context.Context) (T, error)

	mu    sync.Mutex
	state State
	value T
	gen   uint64

	group   singleflight.Group
	fetches atomic.Int64
}

// NewMemo returns an empty Memo filled by fetch.
func NewMemo[T any](fetch func(context.Context) (T, error)) *Memo[T] {
	return &Memo[T]{fetch: fetch}
}

// Get returns the stored value, fetching it first when empty. A caller whose
// ctx ends stops waiting; the fetch keeps running for the others.
func (m *Memo[T]) Get(ctx context.Context) (T, error) {
	m.mu.Lock()
	if m.state == StatePopulated {
		v := m.value
		m.mu.Unlock()
		return v, nil
	}
	gen := m.gen
	m.mu.Unlock()

	// Keyed by generation so callers arriving after Invalidate do not join
	// a fetch that started before it.
	ch := m.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		m.mu.Lock()
		if m.state == StatePopulated && m.gen == gen {
			v := m.value
			m.mu.Unlock()
			return v, nil
		}
		m.mu.Unlock()

		m.fetches.Add(1)
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FillTimeout)
		defer cancel()
		val, err := m.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		if m.gen == gen {
			m.value = val
			m.state = StatePopulated
		}
		m.mu.Unlock()
		return val, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Invalidate empties the Memo. A fetch already in flight still returns its
// result to its callers but does not repopulate.
func (m *Memo[T]) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	m.value = zero
	m.state = StateEmpty
	m.gen++
}

// State reports whether the Memo is populated.
func (m *Memo[T]) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Fetches counts calls to the fetch function.
func (m *Memo[T]) Fetches() int64 {
	return m.fetches.Load()
}

// MemoMap is a set of Memos keyed by string, created on first use.
type MemoMap[T any] struct {
	fetch func(context.Context, string) (T, error)

	mu    sync.Mutex
	memos map[string]*Memo[T]
}

// NewMemoMap returns an empty MemoMap filled per key by fetch.
func NewMemoMap[T any](fetch func(context.Context, string) (T, error)) *MemoMap[T] {
	return &MemoMap[T]{fetch: fetch, memos: make(map[string]*Memo[T])}
}

// Get returns the value for key, fetching it first when empty. A key whose
// fetch fails is removed again.
func (mm *MemoMap[T]) Get(ctx context.Context, key string) (T, error) {
	mm.mu.Lock()
	m, ok := mm.memos[key]
	if !ok {
		m = NewMemo(func(ctx context.Context) (T, error) {
			return mm.fetch(ctx, key)
		})
		mm.memos[key] = m
	}
	mm.mu.Unlock()

	v, err := m.Get(ctx)
	if err != nil && ctx.Err() == nil {
		mm.mu.Lock()
		if mm.memos[key] == m && m.State() == StateEmpty {
			delete(mm.memos, key)
		}
		mm.mu.Unlock()
	}
	return v, err
}

// Invalidate drops every key.
func (mm *MemoMap[T]) Invalidate() {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	for _, m := range mm.memos {
		m.Invalidate()
	}
	mm.memos = make(map[string]*Memo[T])
}

// Keys returns the number of keys held, populated or not.
func (mm *MemoMap[T]) Keys() int {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return len(mm.memos)
}

// Len returns the number of populated keys.
func (mm *MemoMap[T]) Len() int {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	n := 0
	for _, m := range mm.memos {
		if m.State() == StatePopulated {
			n++
		}
	}
	return n
}
