// Package views renders server side HTML pages from embedded templates
package views

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"time"

	"bookshelf/internal/types"
)

//go:embed all:templates
var templatesFS embed.FS

const layoutFile = "templates/layout.html"

// Set holds one template per page, each parsed together with the layout and partials.
// Partials are files starting with underscore, they only define named templates.
type Set struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"coverSrc": func(b *types.Book) template.URL {
		if b == nil || !b.HasCover() {
			return ""
		}
		return template.URL("data:" + b.CoverImageType + ";base64," + base64.StdEncoding.EncodeToString(b.CoverImage))
	},
}

// New parses every page found under templates, page name is its path without extension
// (e.g. "books/show")
func New() (*Set, error) {
	s := &Set{pages: make(map[string]*template.Template)}

	var pages []string
	common := []string{layoutFile}

	err := fs.WalkDir(templatesFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		switch {
		case d.IsDir() || path == layoutFile || !strings.HasSuffix(path, ".html"):
		case strings.HasPrefix(d.Name(), "_"):
			common = append(common, path)
		default:
			pages = append(pages, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, path := range pages {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templatesFS, append(common, path)...)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}

		name := strings.TrimSuffix(strings.TrimPrefix(path, "templates/"), ".html")
		s.pages[name] = t
	}

	return s, nil
}

// MustNew is New panicking on error, templates are embedded so the error is a programming one
func MustNew() *Set {
	s, err := New()
	if err != nil {
		panic(err)
	}
	return s
}

// Render executes page into a buffer, so nothing is written on failure
func (s *Set) Render(name string, data any) ([]byte, error) {
	t, ok := s.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}

	return buf.Bytes(), nil
}
