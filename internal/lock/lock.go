// Package lock serializes work per key, across processes when Redis is
// available and within the process otherwise.
package lock

import (
	"context"
	"sync"
	"time"
)

// Locker acquires an exclusive lock on key. The returned context is done
// once the lock is released or lost; work done under the lock must use it.
type Locker interface {
	Acquire(ctx context.Context, key string) (lease context.Context, release func(), err error)
}

// LocalLocker is an in-process keyed mutex
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

type localLock struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates new in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*localLock)}
}

// Acquire blocks until key is free or ctx is done
func (l *LocalLocker) Acquire(ctx context.Context, key string) (context.Context, func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &localLock{ch: make(chan struct{}, 1)}
		l.locks[key] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, lk)
		return nil, nil, ctx.Err()
	}

	lease, cancel := context.WithCancel(ctx)
	var once sync.Once
	return lease, func() {
		once.Do(func() {
			cancel()
			<-lk.ch
			l.unref(key, lk)
		})
	}, nil
}

func (l *LocalLocker) unref(key string, lk *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, key)
	}
}

// waitRetry paces lock polling
func waitRetry(ctx context.Context, interval time.Duration) error {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ Locker = (*LocalLocker)(nil)
