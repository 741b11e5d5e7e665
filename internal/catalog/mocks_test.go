package catalog

import (
	"context"

	"github.com/stretchr/testify/mock"

	"bookshelf/internal/storage/books"
	"bookshelf/internal/types"
)

type mockBooks struct {
	mock.Mock
}

func (m *mockBooks) GetById(ctx context.Context, id string) (*types.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Book), args.Error(1)
}

func (m *mockBooks) Search(ctx context.Context, filter books.Filter) ([]*types.Book, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Book), args.Error(1)
}

func (m *mockBooks) Recent(ctx context.Context, limit int) ([]*types.Book, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Book), args.Error(1)
}

func (m *mockBooks) Create(ctx context.Context, book *types.Book) error {
	return m.Called(ctx, book).Error(0)
}

func (m *mockBooks) Update(ctx context.Context, book *types.Book) error {
	return m.Called(ctx, book).Error(0)
}

func (m *mockBooks) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockAuthors struct {
	mock.Mock
}

func (m *mockAuthors) GetById(ctx context.Context, id string) (*types.Author, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Author), args.Error(1)
}

func (m *mockAuthors) GetByIds(ctx context.Context, ids ...string) (map[string]*types.Author, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*types.Author), args.Error(1)
}

func (m *mockAuthors) GetAll(ctx context.Context) ([]*types.Author, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Author), args.Error(1)
}

func (m *mockAuthors) Save(ctx context.Context, authors ...*types.Author) error {
	return m.Called(ctx, authors).Error(0)
}
