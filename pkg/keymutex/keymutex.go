// Package keymutex provides mutual exclusion scoped to a string key, used to
// serialize check-then-act sequences against a single contested resource
// without blocking operations on unrelated resources.
package keymutex

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyMutex is a set of mutexes addressed by key. The zero value is not
// usable; create instances with New.
type KeyMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New creates an empty KeyMutex.
func New() *KeyMutex {
	return &KeyMutex{entries: make(map[string]*entry)}
}

// Lock acquires the mutex for key, blocking until it is free. Entries are
// reference-counted so the map does not grow with the key space.
func (k *KeyMutex) Lock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key. It must be called exactly once per Lock.
func (k *KeyMutex) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		k.mu.Unlock()
		panic("keymutex: unlock of unlocked key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
