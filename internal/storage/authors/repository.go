package authors

import (
	"context"

	"bookshelf/internal/types"
)

type Repository interface {
	// GetById returns nil author and nil error when there is no such author
	GetById(ctx context.Context, id string) (*types.Author, error)
	// GetByIds shall return map with NON-NULLS!
	GetByIds(ctx context.Context, ids ...string) (map[string]*types.Author, error)

	// GetAll returns all authors ordered by name
	GetAll(ctx context.Context) ([]*types.Author, error)

	// Save inserts authors, or renames them when the id is already known.
	// Authors with empty Id get a new one assigned.
	Save(ctx context.Context, authors ...*types.Author) error
}
