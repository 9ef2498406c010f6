// Package keylock provides an in-process mutex scoped to a single key, used
// to serialize booking writes per equipment id. Waiters give up after a
// bounded wait instead of queuing indefinitely.
package keylock

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrWaitExpired = errors.New("lock wait expired")

type entry struct {
	sem  chan struct{}
	refs int
}

type KeyedMutex struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

func New() *KeyedMutex {
	return &KeyedMutex{entries: make(map[int64]*entry)}
}

// Acquire blocks until the key's lock is held, the wait expires, or ctx is
// cancelled. On success it returns the release function; the caller must
// invoke it exactly once.
func (m *KeyedMutex) Acquire(ctx context.Context, key int64, wait time.Duration) (func(), error) {
	e := m.retain(key)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.sem
				m.release(key)
			})
		}, nil
	case <-timer.C:
		m.release(key)
		return nil, ErrWaitExpired
	case <-ctx.Done():
		m.release(key)
		return nil, ctx.Err()
	}
}

func (m *KeyedMutex) retain(key int64) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	return e
}

func (m *KeyedMutex) release(key int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(m.entries, key)
	}
}
