package ws

import (
	"sync"
)

// pairLocks serializes conversation upserts per pair room. The lookup and
// write of a conversation summary are two separate store calls; without
// this lock two rapid messages between the same pair could both observe
// "no conversation" and insert duplicate rows.
type pairLocks struct {
	mu    sync.Mutex
	locks map[string]*pairLock
}

type pairLock struct {
	mu   sync.Mutex
	refs int
}

func newPairLocks() *pairLocks {
	return &pairLocks{locks: make(map[string]*pairLock)}
}

// Lock acquires the lock for the given pair key and returns the matching
// unlock function. Lock entries are dropped once no goroutine holds or
// waits on them, so the map does not grow with the number of pairs ever
// seen.
func (p *pairLocks) Lock(key string) (unlock func()) {
	p.mu.Lock()
	l, ok := p.locks[key]
	if !ok {
		l = &pairLock{}
		p.locks[key] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, key)
		}
		p.mu.Unlock()
	}
}
