package bulkimport

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps classified batches in memory until the reviewer exports or
// abandons them. Entries expire after the configured TTL.
type Store struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[uuid.UUID]storedBatch
}

type storedBatch struct {
	batch   *Batch
	savedAt time.Time
}

// NewStore returns a store whose entries live for ttl. A zero ttl disables
// expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{ttl: ttl, items: map[uuid.UUID]storedBatch{}}
}

// Save records the batch, evicting anything expired.
func (s *Store) Save(b *Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	s.items[b.ID] = storedBatch{batch: b, savedAt: time.Now()}
}

// Get returns the batch by id.
func (s *Store) Get(id uuid.UUID) (*Batch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.items[id]
	if !ok || s.expired(entry) {
		return nil, false
	}
	return entry.batch, true
}

// Delete removes a batch, typically after a successful export.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

func (s *Store) expired(entry storedBatch) bool {
	return s.ttl > 0 && time.Since(entry.savedAt) > s.ttl
}

func (s *Store) evictLocked() {
	if s.ttl <= 0 {
		return
	}
	for id, entry := range s.items {
		if s.expired(entry) {
			delete(s.items, id)
		}
	}
}
