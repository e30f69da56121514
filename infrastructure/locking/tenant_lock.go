// Package locking serializes graph mutations per meeting. Concurrent
// chunks for different meetings proceed in parallel; chunks for the
// same meeting queue behind one another.
package locking

import "sync"

// TenantLocker hands out one mutex per meeting id. Mutexes are created
// lazily and kept for the process lifetime; the per-meeting footprint
// is a single mutex.
type TenantLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTenantLocker creates an empty locker.
func NewTenantLocker() *TenantLocker {
	return &TenantLocker{
		locks: make(map[string]*sync.Mutex),
	}
}

func (l *TenantLocker) get(meetingID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[meetingID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[meetingID] = m
	}
	return m
}

// Lock acquires the meeting's mutation lock.
func (l *TenantLocker) Lock(meetingID string) {
	l.get(meetingID).Lock()
}

// Unlock releases the meeting's mutation lock.
func (l *TenantLocker) Unlock(meetingID string) {
	l.get(meetingID).Unlock()
}
