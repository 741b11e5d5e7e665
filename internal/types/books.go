package types

import "time"

type Author struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type Book struct {
	Id          string    `json:"id"`
	Title       string    `json:"title"`
	AuthorId    string    `json:"author_id"`
	PublishDate time.Time `json:"publish_date"`
	PageCount   int       `json:"page_count"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`

	// CoverImage and CoverImageType are either both set or both empty
	CoverImage     []byte `json:"-"`
	CoverImageType string `json:"cover_image_type,omitempty"`
}

func (b *Book) HasCover() bool {
	return len(b.CoverImage) > 0 && b.CoverImageType != ""
}

// Clone returns a deep copy, cover bytes included
func (b *Book) Clone() *Book {
	c := *b
	if b.CoverImage != nil {
		c.CoverImage = append([]byte(nil), b.CoverImage...)
	}
	return &c
}
