package authors

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"bookshelf/internal/types"
)

// NewMemoryRepository keeps authors in process memory, for development and tests
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{authors: make(map[string]types.Author)}
}

type MemoryRepository struct {
	mu      sync.RWMutex
	authors map[string]types.Author
}

func (m *MemoryRepository) GetById(_ context.Context, id string) (*types.Author, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.authors[id]
	if !ok {
		return nil, nil
	}

	return &a, nil
}

func (m *MemoryRepository) GetByIds(_ context.Context, ids ...string) (map[string]*types.Author, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ret := make(map[string]*types.Author, len(ids))
	for _, id := range ids {
		if a, ok := m.authors[id]; ok {
			ret[id] = &a
		}
	}

	return ret, nil
}

func (m *MemoryRepository) GetAll(_ context.Context) ([]*types.Author, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ret := make([]*types.Author, 0, len(m.authors))
	for _, a := range m.authors {
		a := a
		ret = append(ret, &a)
	}

	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Name != ret[j].Name {
			return ret[i].Name < ret[j].Name
		}
		return ret[i].Id < ret[j].Id
	})

	return ret, nil
}

func (m *MemoryRepository) Save(_ context.Context, authors ...*types.Author) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range authors {
		if a.Id == "" {
			a.Id = uuid.NewString()
		}
		m.authors[a.Id] = *a
	}

	return nil
}
