package merge

import "sync"

type refCountedMutex struct {
	sync.Mutex
	refs int
}

// keyedMutex serializes the callers sharing a key. Entries are removed once no caller holds or waits for them.
type keyedMutex struct {
	mut   sync.Mutex
	locks map[string]*refCountedMutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{
		locks: make(map[string]*refCountedMutex),
	}
}

// lock blocks until the key is free and returns the matching unlock function
func (km *keyedMutex) lock(key string) func() {
	km.mut.Lock()
	entry, found := km.locks[key]
	if !found {
		entry = &refCountedMutex{}
		km.locks[key] = entry
	}
	entry.refs++
	km.mut.Unlock()

	entry.Lock()

	return func() {
		entry.Unlock()

		km.mut.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(km.locks, key)
		}
		km.mut.Unlock()
	}
}

func (km *keyedMutex) len() int {
	km.mut.Lock()
	defer km.mut.Unlock()

	return len(km.locks)
}
