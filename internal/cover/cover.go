// Package cover decodes cover image payloads submitted along with book forms.
//
// Payload is a JSON object {"type": "<mime type>", "data": "<base64 bytes>"}
// sent as a single form field.
package cover

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"bookshelf/internal/types"
)

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
}

var ErrMalformed = errors.New("malformed cover payload")

type Payload struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// Allowed reports whether images of given MIME type may be stored as covers
func Allowed(mimeType string) bool {
	_, ok := allowedTypes[mimeType]
	return ok
}

// Decode parses raw form value. Empty value or JSON null yield nil payload and nil error.
func Decode(raw string) (*Payload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var p *Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return p, nil
}

// Apply sets cover of the book from payload. Nil payload and payloads of not allowed
// types are ignored, book stays untouched.
func Apply(book *types.Book, p *Payload) error {
	if p == nil || !Allowed(p.Type) {
		return nil
	}

	bs, err := base64.StdEncoding.DecodeString(strings.TrimSpace(p.Data))
	if err != nil {
		return fmt.Errorf("%w: decoding data: %w", ErrMalformed, err)
	}

	if len(bs) == 0 {
		return fmt.Errorf("%w: empty image", ErrMalformed)
	}

	book.CoverImage = bs
	book.CoverImageType = p.Type
	return nil
}
