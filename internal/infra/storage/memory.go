package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	domain "github.com/M1CTIAN/potato-doc/internal/domain/analysis"
)

// MemoryStore simpan preview di memory, dipakai untuk dev dan test
// waktu MinIO tidak dikonfigurasi.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
	}
}

func (s *MemoryStore) Put(ctx context.Context, session domain.SessionID, file *domain.SelectedFile) (*domain.PreviewHandle, error) {
	key := fmt.Sprintf("%s/%s", session, uuid.New().String())

	data := make([]byte, len(file.Data))
	copy(data, file.Data)

	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()

	return &domain.PreviewHandle{Key: key, URL: "memory://" + key}, nil
}

func (s *MemoryStore) Remove(ctx context.Context, h *domain.PreviewHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[h.Key]; !ok {
		return fmt.Errorf("preview not found: %s", h.Key)
	}
	delete(s.objects, h.Key)
	return nil
}

func (s *MemoryStore) Check(ctx context.Context) error { return nil }

// Len reports how many previews are currently held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

var _ domain.PreviewStore = (*MemoryStore)(nil)
