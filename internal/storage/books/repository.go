package books

import (
	"context"
	"time"

	"bookshelf/internal/types"
)

// Filter narrows Search results, zero fields are not applied
type Filter struct {
	// Title is matched as case-insensitive substring
	Title string
	// PublishedBefore and PublishedAfter are inclusive bounds on publish date
	PublishedBefore time.Time
	PublishedAfter  time.Time
}

type Repository interface {
	// GetById returns nil book and nil error when there is no such book
	GetById(ctx context.Context, id string) (*types.Book, error)

	Search(ctx context.Context, filter Filter) ([]*types.Book, error)
	// Recent returns up to limit books, newest first
	Recent(ctx context.Context, limit int) ([]*types.Book, error)

	// Create assigns Id and CreatedAt of passed book once it is stored, failed Create leaves them as they were
	Create(ctx context.Context, book *types.Book) error
	Update(ctx context.Context, book *types.Book) error
	Delete(ctx context.Context, id string) error
}
