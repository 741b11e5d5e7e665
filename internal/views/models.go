package views

import (
	"bookshelf/internal/catalog"
	"bookshelf/internal/types"
)

type Home struct {
	Books []*types.Book
}

type BookIndex struct {
	Books  []*types.Book
	Search catalog.SearchOptions
}

type BookShow struct {
	Book   *types.Book
	Author *types.Author
}

// BookForm backs both new and edit pages
type BookForm struct {
	Book         *types.Book
	Author       *types.Author
	Authors      []*types.Author
	ErrorMessage string
	// FieldErrors are keyed by form field name
	FieldErrors map[string]string
}
