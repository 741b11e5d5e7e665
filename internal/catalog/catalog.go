// Package catalog implements operations on the Book resource: listing, forms, create, show,
// update and delete. Every operation returns either its result or an error of one of the kinds
// below, callers choose how to respond to each kind.
//
//   - ErrNotFound: book is missing or its id is malformed
//   - ErrPersistence: a repository call failed
//   - *ValidationError: submitted book is invalid, nothing was stored
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"bookshelf/internal/storage/authors"
	"bookshelf/internal/storage/books"
	"bookshelf/internal/types"
)

var (
	ErrNotFound    = errors.New("book not found")
	ErrPersistence = errors.New("storage failure")
)

type Service struct {
	books   books.Repository
	authors authors.Repository
	l       *slog.Logger
}

func NewService(br books.Repository, ar authors.Repository, l *slog.Logger) *Service {
	return &Service{books: br, authors: ar, l: l}
}

type BookList struct {
	Books  []*types.Book
	Search SearchOptions
}

type BookDetails struct {
	Book *types.Book
	// Author is nil when the referenced author no longer exists
	Author *types.Author
}

type BookForm struct {
	Book    *types.Book
	Author  *types.Author
	Authors []*types.Author
}

type BookFeed struct {
	Books   []*types.Book
	Authors map[string]*types.Author
	Search  SearchOptions
}

func persistence(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, what, err)
}

func (s *Service) List(ctx context.Context, opts SearchOptions) (*BookList, error) {
	rows, err := s.books.Search(ctx, opts.Filter())
	if err != nil {
		return nil, persistence("searching books", err)
	}

	return &BookList{Books: rows, Search: opts}, nil
}

func (s *Service) Recent(ctx context.Context, limit int) ([]*types.Book, error) {
	rows, err := s.books.Recent(ctx, limit)
	if err != nil {
		return nil, persistence("fetching recent books", err)
	}

	return rows, nil
}

// NewForm returns blank book along with authors to choose from
func (s *Service) NewForm(ctx context.Context) (*BookForm, error) {
	return s.FormFor(ctx, &types.Book{})
}

// FormFor returns form prefilled with the book, used to show a rejected submission again
func (s *Service) FormFor(ctx context.Context, book *types.Book) (*BookForm, error) {
	as, err := s.authors.GetAll(ctx)
	if err != nil {
		return nil, persistence("fetching authors", err)
	}

	form := &BookForm{Book: book, Authors: as}
	for _, a := range as {
		if a.Id == book.AuthorId {
			form.Author = a
			break
		}
	}

	return form, nil
}

// Create returns the book built from input even when it fails, so the form can be filled again
func (s *Service) Create(ctx context.Context, in BookInput) (*types.Book, error) {
	book := &types.Book{}

	if err := s.check(ctx, &in, book); err != nil {
		return book, err
	}

	if err := s.books.Create(ctx, book); err != nil {
		return book, persistence("creating book", err)
	}

	s.l.InfoContext(ctx, "Created book "+book.Id+" ("+book.Title+")")
	return book, nil
}

func (s *Service) Show(ctx context.Context, id string) (*BookDetails, error) {
	book, err := s.getBook(ctx, id)
	if err != nil {
		return nil, err
	}

	author, err := s.authors.GetById(ctx, book.AuthorId)
	if err != nil {
		return nil, persistence("fetching author", err)
	}

	return &BookDetails{Book: book, Author: author}, nil
}

func (s *Service) EditForm(ctx context.Context, id string) (*BookForm, error) {
	book, err := s.getBook(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.FormFor(ctx, book)
}

// Update returns nil book when it could not be fetched; otherwise the book with input applied
func (s *Service) Update(ctx context.Context, id string, in BookInput) (*types.Book, error) {
	book, err := s.getBook(ctx, id)
	if err != nil {
		return nil, err
	}

	if err = s.check(ctx, &in, book); err != nil {
		return book, err
	}

	if err = s.books.Update(ctx, book); err != nil {
		return book, persistence("updating book", err)
	}

	s.l.InfoContext(ctx, "Updated book "+book.Id+" ("+book.Title+")")
	return book, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	book, err := s.getBook(ctx, id)
	if err != nil {
		return err
	}

	if err = s.books.Delete(ctx, book.Id); err != nil {
		return persistence("deleting book", err)
	}

	s.l.InfoContext(ctx, "Deleted book "+book.Id+" ("+book.Title+")")
	return nil
}

// Cover returns the book only if it has a cover
func (s *Service) Cover(ctx context.Context, id string) (*types.Book, error) {
	book, err := s.getBook(ctx, id)
	if err != nil {
		return nil, err
	}

	if !book.HasCover() {
		return nil, fmt.Errorf("%w: book %s has no cover", ErrNotFound, id)
	}

	return book, nil
}

// Feed returns books matching the options together with their authors
func (s *Service) Feed(ctx context.Context, opts SearchOptions) (*BookFeed, error) {
	list, err := s.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	var authorIds []string
	seenAuthor := make(map[string]struct{})
	for _, b := range list.Books {
		if _, ok := seenAuthor[b.AuthorId]; !ok {
			seenAuthor[b.AuthorId] = struct{}{}
			authorIds = append(authorIds, b.AuthorId)
		}
	}

	as, err := s.authors.GetByIds(ctx, authorIds...)
	if err != nil {
		return nil, persistence("fetching authors", err)
	}

	return &BookFeed{Books: list.Books, Authors: as, Search: opts}, nil
}

func (s *Service) getBook(ctx context.Context, id string) (*types.Book, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, fmt.Errorf("%w: malformed id %q", ErrNotFound, id)
	}

	book, err := s.books.GetById(ctx, id)
	if err != nil {
		return nil, persistence("fetching book", err)
	}

	if book == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return book, nil
}

// check applies input to the book and makes sure the result may be stored
func (s *Service) check(ctx context.Context, in *BookInput, book *types.Book) error {
	verr := in.applyTo(book)

	if verr == nil || verr.Fields["author"] == "" {
		author, err := s.authors.GetById(ctx, book.AuthorId)
		if err != nil {
			return persistence("fetching author", err)
		}

		if author == nil {
			if verr == nil {
				verr = &ValidationError{}
			}
			verr.add("author", "must reference an author")
		}
	}

	if verr != nil {
		return verr
	}

	return nil
}
