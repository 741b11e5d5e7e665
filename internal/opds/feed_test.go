package opds

import (
	"encoding/xml"
	"testing"
	"time"

	"github.com/opds-community/libopds2-go/opds1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/types"
)

func TestBuild(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	bks := []*types.Book{
		{
			Id:          "b1",
			Title:       "Dune",
			AuthorId:    "a1",
			PublishDate: time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC),
			Description: "Spice",
			CreatedAt:   now,
		},
		{
			Id:             "b2",
			Title:          "Dune Messiah",
			AuthorId:       "missing",
			CoverImage:     []byte{1},
			CoverImageType: "image/png",
			CreatedAt:      now,
		},
	}
	authors := map[string]*types.Author{"a1": {Id: "a1", Name: "Frank Herbert"}}

	feed := Build(bks, authors, "https://books.example.com/", "/books/opds?title=dune", now)

	assert.Equal(t, "https://books.example.com/books/opds?title=dune", feed.Links[0].Href)
	require.Len(t, feed.Entries, 2)

	first := feed.Entries[0]
	assert.Equal(t, "urn:uuid:b1", first.ID)
	assert.Equal(t, "1965-08-01", first.Issued)
	assert.Equal(t, "Spice", first.Content.Content)
	require.Len(t, first.Author, 1)
	assert.Equal(t, "Frank Herbert", first.Author[0].Name)
	require.Len(t, first.Links, 1)
	assert.Equal(t, "https://books.example.com/books/b1", first.Links[0].Href)

	second := feed.Entries[1]
	assert.Empty(t, second.Author)
	require.Len(t, second.Links, 2)
	assert.Equal(t, linkRelImage, second.Links[1].Rel)
	assert.Equal(t, "https://books.example.com/books/b2/cover", second.Links[1].Href)
	assert.Equal(t, "image/png", second.Links[1].TypeLink)
}

func TestMarshal_RoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	feed := Build([]*types.Book{{Id: "b1", Title: "Dune", CreatedAt: now}}, nil, "", "/books/opds", now)

	bs, err := Marshal(feed)
	require.NoError(t, err)
	assert.Contains(t, string(bs), "<feed")
	assert.Contains(t, string(bs), nsAtom)

	var parsed opds1.Feed
	require.NoError(t, xml.Unmarshal(bs, &parsed))
	require.Len(t, parsed.Entries, 1)
	assert.Equal(t, "Dune", parsed.Entries[0].Title)
	assert.Equal(t, "/books/b1", parsed.Entries[0].Links[0].Href)
}
