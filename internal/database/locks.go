package database

import "sync"

// lockTable hands out one mutex per listing id. Entries are never removed;
// the table grows with the number of listings that ever had a booking
// mutation, which is bounded and small per process lifetime.
type lockTable struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[uint]*sync.Mutex)}
}

func (t *lockTable) get(id uint) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	if m, ok := t.locks[id]; ok {
		return m
	}
	m := &sync.Mutex{}
	t.locks[id] = m
	return m
}
