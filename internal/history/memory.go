package history

import "sync"

// MemoryStore is a fixed-capacity, thread-safe ring of attempts. When full,
// the oldest attempt is evicted. All methods are safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	items  []Attempt
	cap    int
	head   int // index of the oldest element
	count  int // number of elements currently stored
	nextID int64
}

// NewMemoryStore creates a MemoryStore holding at most capacity attempts.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryStore{
		items: make([]Attempt, capacity),
		cap:   capacity,
	}
}

// Record stores an attempt, assigning an ID when it has none.
func (m *MemoryStore) Record(a Attempt) {
	m.add(a)
}

// add stores an attempt and returns it with its assigned ID.
func (m *MemoryStore) add(a Attempt) Attempt {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == 0 {
		m.nextID++
		a.ID = m.nextID
	} else if a.ID > m.nextID {
		m.nextID = a.ID
	}

	if m.count == m.cap {
		m.items[m.head] = a
		m.head = (m.head + 1) % m.cap
		return a
	}
	m.items[(m.head+m.count)%m.cap] = a
	m.count++
	return a
}

// reserveIDs makes sure future IDs are greater than floor.
func (m *MemoryStore) reserveIDs(floor int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if floor > m.nextID {
		m.nextID = floor
	}
}

// Recent returns up to limit attempts, newest first. A non-positive limit
// returns everything held.
func (m *MemoryStore) Recent(limit int) []Attempt {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.count
	if limit > 0 && limit < n {
		n = limit
	}
	if n == 0 {
		return nil
	}

	out := make([]Attempt, n)
	for i := 0; i < n; i++ {
		out[i] = m.items[(m.head+m.count-1-i)%m.cap]
	}
	return out
}

// Len returns the number of attempts held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}

// DroppedWrites is always zero for the in-memory store.
func (m *MemoryStore) DroppedWrites() int64 { return 0 }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
