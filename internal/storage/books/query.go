package books

import (
	"log/slog"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"bookshelf/internal/types"
)

// sqlBook is the row layout shared by postgres and mysql repositories
type sqlBook struct {
	Id             string    `db:"id"`
	Title          string    `db:"title"`
	AuthorId       string    `db:"author_id"`
	PublishDate    time.Time `db:"publish_date"`
	PageCount      int       `db:"page_count"`
	Description    string    `db:"description"`
	CoverImage     []byte    `db:"cover_image"`
	CoverImageType *string   `db:"cover_image_type"`
	CreatedAt      time.Time `db:"created_at"`
}

func fromCommon(b *types.Book) sqlBook {
	row := sqlBook{
		Id:          b.Id,
		Title:       b.Title,
		AuthorId:    b.AuthorId,
		PublishDate: b.PublishDate,
		PageCount:   b.PageCount,
		Description: b.Description,
		CreatedAt:   b.CreatedAt,
	}

	if b.HasCover() {
		t := b.CoverImageType
		row.CoverImage = b.CoverImage
		row.CoverImageType = &t
	}

	return row
}

// intoCommon drops a half stored cover (bytes without type or the other way round), reporting it to l
func (b *sqlBook) intoCommon(l *slog.Logger) *types.Book {
	ret := &types.Book{
		Id:          b.Id,
		Title:       b.Title,
		AuthorId:    b.AuthorId,
		PublishDate: b.PublishDate,
		PageCount:   b.PageCount,
		Description: b.Description,
		CreatedAt:   b.CreatedAt,
	}

	switch hasType := b.CoverImageType != nil && *b.CoverImageType != ""; {
	case hasType && len(b.CoverImage) > 0:
		ret.CoverImage = b.CoverImage
		ret.CoverImageType = *b.CoverImageType
	case hasType || len(b.CoverImage) > 0:
		l.Warn("Ignoring inconsistent cover of book "+b.Id,
			slog.Bool("has_type", hasType), slog.Int("cover_bytes", len(b.CoverImage)))
	}

	return ret
}

// prepareNew returns a copy of b with the fields owned by the repository filled,
// b gets them through markStored only once the insert succeeded
func prepareNew(b *types.Book) *types.Book {
	n := *b
	n.Id = uuid.NewString()
	// postgres keeps microseconds only
	n.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	return &n
}

func markStored(b, stored *types.Book) {
	b.Id = stored.Id
	b.CreatedAt = stored.CreatedAt
}

func escapeLike(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(s),
		"\\", "\\\\"),
		"_", "\\_"),
		"%", "\\%")
}

func applyFilter(qb *goqu.SelectDataset, filter Filter) *goqu.SelectDataset {
	if title := escapeLike(filter.Title); title != "" {
		qb = qb.Where(goqu.C("title").ILike("%" + title + "%"))
	}

	if !filter.PublishedBefore.IsZero() {
		qb = qb.Where(goqu.C("publish_date").Lte(filter.PublishedBefore))
	}

	if !filter.PublishedAfter.IsZero() {
		qb = qb.Where(goqu.C("publish_date").Gte(filter.PublishedAfter))
	}

	return qb.Order(goqu.C("title").Asc(), goqu.C("id").Asc())
}

func updateRecord(b *types.Book) goqu.Record {
	row := fromCommon(b)

	return goqu.Record{
		"title":            row.Title,
		"author_id":        row.AuthorId,
		"publish_date":     row.PublishDate,
		"page_count":       row.PageCount,
		"description":      row.Description,
		"cover_image":      row.CoverImage,
		"cover_image_type": row.CoverImageType,
	}
}
