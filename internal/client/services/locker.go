package services

import (
	"slices"
	"sync"
)

// Locker hands out one mutex per key. UpdateUser and the sync engine lock
// the same contact so an edit never interleaves with a push of that record.
// An edit that changes the contact holds both the stored and the new one.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (l *Locker) Lock(key string) (unlock func()) {
	l.mu.Lock()
	k, ok := l.locks[key]
	if !ok {
		k = &keyLock{}
		l.locks[key] = k
	}
	k.refs++
	l.mu.Unlock()

	k.mu.Lock()

	return func() {
		k.mu.Unlock()

		l.mu.Lock()
		k.refs--
		if k.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

// LockAll locks every distinct key in sorted order, so two callers sharing
// keys cannot deadlock. Empty keys are ignored.
func (l *Locker) LockAll(keys ...string) (unlock func()) {
	ks := slices.DeleteFunc(slices.Clone(keys), func(k string) bool { return k == "" })
	slices.Sort(ks)
	ks = slices.Compact(ks)

	unlocks := make([]func(), 0, len(ks))
	for _, k := range ks {
		unlocks = append(unlocks, l.Lock(k))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}
