// Package lease provides soft leases with TTLs used to deduplicate
// ingestion work. A held, unexpired lease means the keyed work is already
// processing or recently completed and must be skipped. Expiry is evaluated
// lazily at check time; nothing sweeps the map proactively, so a crashed
// worker's lease simply ages out.
package lease

import (
	"context"
	"sync"
	"time"
)

// Status of a held lease.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

// Store is the atomic check-and-set surface shared by all deployments.
// Back it with MemoryStore for a single process or RedisStore when the
// service runs as multiple replicas; callers never see the difference.
type Store interface {
	// TryAcquire atomically claims key for processing. It returns false
	// when an unexpired lease (processing or completed) already exists.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete marks key as completed, keeping the duplicate-suppression
	// window open for ttl.
	Complete(ctx context.Context, key string, ttl time.Duration) error

	// Release drops the lease entirely so a retry is not treated as a
	// duplicate.
	Release(ctx context.Context, key string) error
}

type entry struct {
	status    Status
	expiresAt time.Time
}

// MemoryStore is a mutex-guarded lease map for single-instance deployments.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry

	// now is swappable in tests
	now func() time.Time
}

// NewMemoryStore creates an in-process lease store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (s *MemoryStore) TryAcquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		return false, nil
	}

	s.entries[key] = entry{status: StatusProcessing, expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *MemoryStore) Complete(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{status: StatusCompleted, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// SetNow overrides the clock. Test hook.
func (s *MemoryStore) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
