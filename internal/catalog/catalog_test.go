package catalog

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/storage/authors"
	"bookshelf/internal/storage/books"
	"bookshelf/internal/types"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newMemoryService(t *testing.T) (*Service, *types.Author) {
	t.Helper()

	ar := authors.NewMemoryRepository()
	author := &types.Author{Name: "Frank Herbert"}
	require.NoError(t, ar.Save(context.Background(), author))

	return NewService(books.NewMemoryRepository(), ar, discard), author
}

func bookForm(author *types.Author, title, date string) url.Values {
	return url.Values{
		"title":       {title},
		"author":      {author.Id},
		"publishDate": {date},
		"pageCount":   {"412"},
		"description": {"A desert planet"},
	}
}

func createBook(t *testing.T, s *Service, form url.Values) *types.Book {
	t.Helper()

	book, err := s.Create(context.Background(), ParseBookInput(form))
	require.NoError(t, err)
	return book
}

func titles(bs []*types.Book) []string {
	ret := make([]string, 0, len(bs))
	for _, b := range bs {
		ret = append(ret, b.Title)
	}
	return ret
}

func TestService_CreateAndList(t *testing.T) {
	s, author := newMemoryService(t)
	ctx := context.Background()

	book := createBook(t, s, bookForm(author, "Dune", "1965-08-01"))
	assert.NotEmpty(t, book.Id)
	assert.False(t, book.CreatedAt.IsZero())

	list, err := s.List(ctx, SearchOptions{})
	require.NoError(t, err)
	require.Len(t, list.Books, 1)

	got := list.Books[0]
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, author.Id, got.AuthorId)
	assert.Equal(t, 412, got.PageCount)
	assert.Equal(t, time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC), got.PublishDate)
	assert.Nil(t, got.CoverImage)
	assert.Empty(t, got.CoverImageType)
}

func TestService_ListFilters(t *testing.T) {
	s, author := newMemoryService(t)
	ctx := context.Background()

	createBook(t, s, bookForm(author, "The abc of Sand", "1960-01-01"))
	createBook(t, s, bookForm(author, "ABCdef", "1965-08-01"))
	createBook(t, s, bookForm(author, "Dune Messiah", "1969-10-15"))
	createBook(t, s, bookForm(author, "Children of Dune", "1976-04-01"))

	list, err := s.List(ctx, SearchOptions{Title: "abc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ABCdef", "The abc of Sand"}, titles(list.Books))
	assert.Equal(t, "abc", list.Search.Title)

	list, err = s.List(ctx, SearchOptions{PublishedAfter: "1965-08-01"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ABCdef", "Children of Dune", "Dune Messiah"}, titles(list.Books))

	list, err = s.List(ctx, SearchOptions{PublishedBefore: "1969-10-15", PublishedAfter: "1960-01-02"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ABCdef", "Dune Messiah"}, titles(list.Books))

	list, err = s.List(ctx, SearchOptions{Title: "dune", PublishedBefore: "garbage"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Children of Dune", "Dune Messiah"}, titles(list.Books))
	assert.Equal(t, "garbage", list.Search.PublishedBefore)
}

func TestService_CreateCover(t *testing.T) {
	s, author := newMemoryService(t)
	ctx := context.Background()
	img := []byte("not really a png")

	form := bookForm(author, "Dune", "1965-08-01")
	form.Set("cover", `{"type":"image/png","data":"`+base64.StdEncoding.EncodeToString(img)+`"}`)
	withCover := createBook(t, s, form)

	form = bookForm(author, "Dune Messiah", "1969-10-15")
	form.Set("cover", `{"type":"application/pdf","data":"`+base64.StdEncoding.EncodeToString(img)+`"}`)
	withoutCover := createBook(t, s, form)

	details, err := s.Show(ctx, withCover.Id)
	require.NoError(t, err)
	assert.Equal(t, img, details.Book.CoverImage)
	assert.Equal(t, "image/png", details.Book.CoverImageType)

	details, err = s.Show(ctx, withoutCover.Id)
	require.NoError(t, err)
	assert.Nil(t, details.Book.CoverImage)
	assert.Empty(t, details.Book.CoverImageType)
}

func TestService_CreateInvalid(t *testing.T) {
	s, author := newMemoryService(t)
	ctx := context.Background()

	form := bookForm(author, "Dune", "1965-08-01")
	form.Set("cover", "{not json")
	book, err := s.Create(ctx, ParseBookInput(form))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "cover")
	assert.Equal(t, "Dune", book.Title)
	assert.Empty(t, book.Id)

	form = bookForm(&types.Author{Id: "3b241101-e2bb-4255-8caf-4136c566a962"}, "Dune", "1965-08-01")
	_, err = s.Create(ctx, ParseBookInput(form))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must reference an author", verr.Fields["author"])

	list, err := s.List(ctx, SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, list.Books)
}

func TestService_Show(t *testing.T) {
	s, author := newMemoryService(t)
	ctx := context.Background()

	book := createBook(t, s, bookForm(author, "Dune", "1965-08-01"))

	details, err := s.Show(ctx, book.Id)
	require.NoError(t, err)
	assert.Equal(t, book.Id, details.Book.Id)
	require.NotNil(t, details.Author)
	assert.Equal(t, author.Id, details.Author.Id)
	assert.Equal(t, details.Book.AuthorId, details.Author.Id)

	_, err = s.Show(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Show(ctx, "3b241101-e2bb-4255-8caf-4136c566a962")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_EditForm(t *testing.T) {
	s, author := newMemoryService(t)
	ctx := context.Background()

	book := createBook(t, s, bookForm(author, "Dune", "1965-08-01"))

	form, err := s.EditForm(ctx, book.Id)
	require.NoError(t, err)
	assert.Equal(t, book.Id, form.Book.Id)
	assert.Equal(t, author.Id, form.Author.Id)
	assert.Len(t, form.Authors, 1)

	_, err = s.EditForm(ctx, "bad")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Update(t *testing.T) {
	s, author := newMemoryService(t)
	ctx := context.Background()

	form := bookForm(author, "Dune", "1965-08-01")
	form.Set("cover", `{"type":"image/jpeg","data":"AAEC"}`)
	book := createBook(t, s, form)

	form = bookForm(author, "Dune (revised)", "1965-09-01")
	form.Set("pageCount", "500")
	updated, err := s.Update(ctx, book.Id, ParseBookInput(form))
	require.NoError(t, err)
	assert.Equal(t, "Dune (revised)", updated.Title)

	details, err := s.Show(ctx, book.Id)
	require.NoError(t, err)
	assert.Equal(t, "Dune (revised)", details.Book.Title)
	assert.Equal(t, 500, details.Book.PageCount)
	assert.Equal(t, time.Date(1965, 9, 1, 0, 0, 0, 0, time.UTC), details.Book.PublishDate)
	assert.Equal(t, []byte{0, 1, 2}, details.Book.CoverImage)
	assert.Equal(t, "image/jpeg", details.Book.CoverImageType)
	assert.Equal(t, book.CreatedAt, details.Book.CreatedAt)

	form.Set("cover", `{"type":"image/gif","data":"R0lGODlh"}`)
	_, err = s.Update(ctx, book.Id, ParseBookInput(form))
	require.NoError(t, err)

	details, err = s.Show(ctx, book.Id)
	require.NoError(t, err)
	assert.Equal(t, []byte("GIF89a"), details.Book.CoverImage)
	assert.Equal(t, "image/gif", details.Book.CoverImageType)
}

func TestService_UpdateFailures(t *testing.T) {
	s, author := newMemoryService(t)
	ctx := context.Background()

	book := createBook(t, s, bookForm(author, "Dune", "1965-08-01"))

	updated, err := s.Update(ctx, "bad", ParseBookInput(bookForm(author, "X", "1965-08-01")))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, updated)

	updated, err = s.Update(ctx, book.Id, ParseBookInput(bookForm(author, "", "1965-08-01")))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.NotNil(t, updated)
	assert.Equal(t, book.Id, updated.Id)

	details, err := s.Show(ctx, book.Id)
	require.NoError(t, err)
	assert.Equal(t, "Dune", details.Book.Title)
}

func TestService_Delete(t *testing.T) {
	s, author := newMemoryService(t)
	ctx := context.Background()

	book := createBook(t, s, bookForm(author, "Dune", "1965-08-01"))

	require.NoError(t, s.Delete(ctx, book.Id))

	_, err := s.Show(ctx, book.Id)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, book.Id), ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "bad"), ErrNotFound)
}

func TestService_Recent(t *testing.T) {
	s, author := newMemoryService(t)
	ctx := context.Background()

	createBook(t, s, bookForm(author, "First", "1965-08-01"))
	time.Sleep(time.Millisecond)
	createBook(t, s, bookForm(author, "Second", "1965-08-01"))

	recent, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Second"}, titles(recent))
}

func TestService_Cover(t *testing.T) {
	s, author := newMemoryService(t)
	ctx := context.Background()

	plain := createBook(t, s, bookForm(author, "Plain", "1965-08-01"))
	form := bookForm(author, "Pretty", "1965-08-01")
	form.Set("cover", `{"type":"image/png","data":"AAEC"}`)
	pretty := createBook(t, s, form)

	_, err := s.Cover(ctx, plain.Id)
	assert.ErrorIs(t, err, ErrNotFound)

	b, err := s.Cover(ctx, pretty.Id)
	require.NoError(t, err)
	assert.Equal(t, "image/png", b.CoverImageType)
}

func TestService_Feed(t *testing.T) {
	s, author := newMemoryService(t)
	ctx := context.Background()

	createBook(t, s, bookForm(author, "Dune", "1965-08-01"))
	createBook(t, s, bookForm(author, "Dune Messiah", "1969-10-15"))

	feed, err := s.Feed(ctx, SearchOptions{Title: "messiah"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune Messiah"}, titles(feed.Books))
	assert.Equal(t, author.Name, feed.Authors[author.Id].Name)
}

func TestService_RepositoryFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	id := "3b241101-e2bb-4255-8caf-4136c566a962"

	t.Run("list", func(t *testing.T) {
		br := &mockBooks{}
		br.On("Search", ctx, mock.Anything).Return(nil, boom)

		_, err := NewService(br, &mockAuthors{}, discard).List(ctx, SearchOptions{})
		assert.ErrorIs(t, err, ErrPersistence)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("new form", func(t *testing.T) {
		ar := &mockAuthors{}
		ar.On("GetAll", ctx).Return(nil, boom)

		_, err := NewService(&mockBooks{}, ar, discard).NewForm(ctx)
		assert.ErrorIs(t, err, ErrPersistence)
	})

	t.Run("show", func(t *testing.T) {
		br := &mockBooks{}
		br.On("GetById", ctx, id).Return(nil, boom)

		_, err := NewService(br, &mockAuthors{}, discard).Show(ctx, id)
		assert.ErrorIs(t, err, ErrPersistence)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("create", func(t *testing.T) {
		author := &types.Author{Id: "5f1c1f55-2a43-4d3a-a3b4-0d6b5c1f7a10", Name: "Frank Herbert"}

		br := &mockBooks{}
		br.On("Create", ctx, mock.Anything).Return(boom)
		ar := &mockAuthors{}
		ar.On("GetById", ctx, author.Id).Return(author, nil)

		book, err := NewService(br, ar, discard).Create(ctx, ParseBookInput(bookForm(author, "Dune", "1965-08-01")))
		assert.ErrorIs(t, err, ErrPersistence)
		assert.Equal(t, "Dune", book.Title)
		br.AssertExpectations(t)
	})

	t.Run("delete", func(t *testing.T) {
		br := &mockBooks{}
		br.On("GetById", ctx, id).Return(&types.Book{Id: id}, nil)
		br.On("Delete", ctx, id).Return(boom)

		err := NewService(br, &mockAuthors{}, discard).Delete(ctx, id)
		assert.ErrorIs(t, err, ErrPersistence)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		author := &types.Author{Id: "5f1c1f55-2a43-4d3a-a3b4-0d6b5c1f7a10", Name: "Frank Herbert"}

		br := &mockBooks{}
		br.On("GetById", ctx, id).Return(&types.Book{Id: id, Title: "Old"}, nil)
		br.On("Update", ctx, mock.MatchedBy(func(b *types.Book) bool {
			return b.Id == id && b.Title == "Dune"
		})).Return(boom)
		ar := &mockAuthors{}
		ar.On("GetById", ctx, author.Id).Return(author, nil)

		book, err := NewService(br, ar, discard).Update(ctx, id, ParseBookInput(bookForm(author, "Dune", "1965-08-01")))
		assert.ErrorIs(t, err, ErrPersistence)
		require.NotNil(t, book)
		br.AssertExpectations(t)
	})
}
