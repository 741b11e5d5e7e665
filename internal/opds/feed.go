// Package opds exposes the catalog as OPDS 1.2 acquisition feed
package opds

import (
	"bytes"
	"encoding/xml"
	"strings"
	"time"

	"github.com/opds-community/libopds2-go/opds1"

	"bookshelf/internal/types"
)

const (
	ContentType = "application/atom+xml;profile=opds-catalog;kind=acquisition"

	linkRelSelf      = "self"
	linkRelStart     = "start"
	linkRelAlternate = "alternate"
	linkRelImage     = "http://opds-spec.org/image"
	linkTypeHTML     = "text/html"

	nsAtom = "http://www.w3.org/2005/Atom"
	nsDC   = "http://purl.org/dc/terms/"
	nsOPDS = "http://opds-spec.org/2010/catalog"
)

// Build makes a feed of books. baseUrl prefixes every link, empty baseUrl gives root-relative links.
func Build(bks []*types.Book, authors map[string]*types.Author, baseUrl, selfPath string, now time.Time) opds1.Feed {
	baseUrl = strings.TrimSuffix(baseUrl, "/")

	feed := opds1.Feed{
		ID:      "urn:bookshelf:catalog",
		Title:   "Bookshelf",
		Updated: now.UTC(),
		Links: []opds1.Link{
			{Rel: linkRelSelf, Href: baseUrl + selfPath, TypeLink: ContentType},
			{Rel: linkRelStart, Href: baseUrl + "/books/opds", TypeLink: ContentType},
		},
		Entries: make([]opds1.Entry, 0, len(bks)),
	}

	for _, b := range bks {
		entry := opds1.Entry{
			ID:     "urn:uuid:" + b.Id,
			Title:  b.Title,
			Issued: b.PublishDate.Format("2006-01-02"),
			Links: []opds1.Link{
				{Rel: linkRelAlternate, Href: baseUrl + "/books/" + b.Id, TypeLink: linkTypeHTML},
			},
		}
		entry.Content.Content = b.Description

		if a, ok := authors[b.AuthorId]; ok {
			entry.Author = []opds1.Author{{Name: a.Name}}
		}

		if b.HasCover() {
			entry.Links = append(entry.Links, opds1.Link{
				Rel:      linkRelImage,
				Href:     baseUrl + "/books/" + b.Id + "/cover",
				TypeLink: b.CoverImageType,
			})
		}

		feed.Entries = append(feed.Entries, entry)
	}

	return feed
}

// Marshal encodes the feed as Atom document with OPDS namespaces
func Marshal(feed opds1.Feed) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	err := enc.EncodeElement(feed, xml.StartElement{
		Name: xml.Name{Local: "feed"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: nsAtom},
			{Name: xml.Name{Local: "xmlns:dc"}, Value: nsDC},
			{Name: xml.Name{Local: "xmlns:opds"}, Value: nsOPDS},
		},
	})
	if err != nil {
		return nil, err
	}

	if err = enc.Flush(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
