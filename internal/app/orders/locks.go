package orders

import "sync"

// orderLocks serializes mutations per order ID. Concurrent requests
// against the same order take turns through the whole load-mutate-persist
// cycle, which closes the lost-update window on the running total.
//
// Entries are never evicted; the map grows with the number of distinct
// orders mutated by this process, a few dozen bytes each.
type orderLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newOrderLocks() *orderLocks {
	return &orderLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for the given order and returns its unlock func.
func (l *orderLocks) lock(orderID string) func() {
	l.mu.Lock()
	m, ok := l.locks[orderID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[orderID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
