package books

import (
	"context"
	"sort"
	"strings"
	"sync"

	"bookshelf/internal/types"
)

// NewMemoryRepository keeps books in process memory, for development and tests
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{books: make(map[string]*types.Book)}
}

type MemoryRepository struct {
	mu    sync.RWMutex
	books map[string]*types.Book
}

func (m *MemoryRepository) GetById(_ context.Context, id string) (*types.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.books[id]
	if !ok {
		return nil, nil
	}

	return b.Clone(), nil
}

func (m *MemoryRepository) Search(_ context.Context, filter Filter) ([]*types.Book, error) {
	title := strings.ToLower(strings.TrimSpace(filter.Title))

	m.mu.RLock()
	defer m.mu.RUnlock()

	ret := make([]*types.Book, 0)
	for _, b := range m.books {
		if title != "" && !strings.Contains(strings.ToLower(b.Title), title) {
			continue
		}

		if !filter.PublishedBefore.IsZero() && b.PublishDate.After(filter.PublishedBefore) {
			continue
		}

		if !filter.PublishedAfter.IsZero() && b.PublishDate.Before(filter.PublishedAfter) {
			continue
		}

		ret = append(ret, b.Clone())
	}

	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Title != ret[j].Title {
			return ret[i].Title < ret[j].Title
		}
		return ret[i].Id < ret[j].Id
	})

	return ret, nil
}

func (m *MemoryRepository) Recent(_ context.Context, limit int) ([]*types.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ret := make([]*types.Book, 0, len(m.books))
	for _, b := range m.books {
		ret = append(ret, b.Clone())
	}

	sort.Slice(ret, func(i, j int) bool {
		if !ret[i].CreatedAt.Equal(ret[j].CreatedAt) {
			return ret[i].CreatedAt.After(ret[j].CreatedAt)
		}
		return ret[i].Id < ret[j].Id
	})

	if len(ret) > limit {
		ret = ret[:limit]
	}

	return ret, nil
}

func (m *MemoryRepository) Create(_ context.Context, book *types.Book) error {
	n := prepareNew(book)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.books[n.Id] = n.Clone()
	markStored(book, n)
	return nil
}

func (m *MemoryRepository) Update(_ context.Context, book *types.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.books[book.Id]
	if !ok {
		// same as UPDATE matching no rows
		return nil
	}

	b := book.Clone()
	b.CreatedAt = old.CreatedAt
	m.books[book.Id] = b
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.books, id)
	return nil
}
