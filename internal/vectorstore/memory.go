package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"chatbot-vector-engine/models"
)

// MemoryStore is an in-process Store for tests and local development. It
// scores with exact cosine similarity and honors the same namespace and
// metadata-filter semantics as the Atlas backend.
type MemoryStore struct {
	mu      sync.RWMutex
	indexes map[string]*memIndex

	// DefaultReady controls whether freshly created indexes report ready
	// immediately. Tests flip this to exercise provisioning timeouts.
	DefaultReady bool
}

type memIndex struct {
	ready      bool
	namespaces map[string][]models.Chunk
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		indexes:      make(map[string]*memIndex),
		DefaultReady: true,
	}
}

func (s *MemoryStore) CreateIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.indexes[name]; ok {
		return nil
	}
	s.indexes[name] = &memIndex{
		ready:      s.DefaultReady,
		namespaces: make(map[string][]models.Chunk),
	}
	return nil
}

func (s *MemoryStore) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[name]
	return ok, nil
}

func (s *MemoryStore) IndexReady(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indexes[name]
	return ok && idx.ready, nil
}

// SetReady flips readiness for a provisioned index. Test hook.
func (s *MemoryStore) SetReady(name string, ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.indexes[name]; ok {
		idx.ready = ready
	}
}

func (s *MemoryStore) DeleteIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.indexes[name]; !ok {
		return ErrIndexNotFound
	}
	delete(s.indexes, name)
	return nil
}

func (s *MemoryStore) Upsert(_ context.Context, index, namespace string, chunks []models.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.indexes[index]
	if !ok {
		return ErrIndexNotFound
	}

	existing := idx.namespaces[namespace]
	for _, ch := range chunks {
		replaced := false
		for i := range existing {
			if existing[i].ID == ch.ID {
				existing[i] = ch
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, ch)
		}
	}
	idx.namespaces[namespace] = existing
	return nil
}

func (s *MemoryStore) Query(_ context.Context, index, namespace string, vector []float32, topK int, filter map[string]string) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.indexes[index]
	if !ok {
		return nil, nil
	}

	var matches []Match
	for _, ch := range idx.namespaces[namespace] {
		if !metadataMatches(ch.Metadata, filter) {
			continue
		}
		matches = append(matches, Match{
			ID:       ch.ID,
			Score:    cosineSimilarity(vector, ch.Embedding),
			Text:     ch.Text,
			Metadata: ch.Metadata,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *MemoryStore) DeleteByID(_ context.Context, index, namespace string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.indexes[index]
	if !ok {
		return nil
	}

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	kept := idx.namespaces[namespace][:0]
	for _, ch := range idx.namespaces[namespace] {
		if !drop[ch.ID] {
			kept = append(kept, ch)
		}
	}
	idx.namespaces[namespace] = kept
	return nil
}

func (s *MemoryStore) DeleteNamespace(_ context.Context, index, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.indexes[index]; ok {
		delete(idx.namespaces, namespace)
	}
	return nil
}

func (s *MemoryStore) Stats(_ context.Context, index string) (*IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.indexes[index]
	if !ok {
		return nil, ErrIndexNotFound
	}

	stats := &IndexStats{IndexName: index, Namespaces: make(map[string]int64)}
	for ns, chunks := range idx.namespaces {
		stats.Namespaces[ns] = int64(len(chunks))
		stats.TotalVectors += int64(len(chunks))
	}
	return stats, nil
}

func metadataMatches(md models.ChunkMetadata, filter map[string]string) bool {
	for key, want := range filter {
		switch key {
		case "source":
			if md.Source != want {
				return false
			}
		case "tenant":
			if md.Tenant != want {
				return false
			}
		default:
			if md.Tags[key] != want {
				return false
			}
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
