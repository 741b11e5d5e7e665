package catalog

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"bookshelf/internal/cover"
	"bookshelf/internal/storage/books"
	"bookshelf/internal/types"
)

// DateLayout is the layout of dates in forms and query strings
const DateLayout = "2006-01-02"

var validate = validator.New()

func init() {
	// report form field names instead of Go field names
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidationError maps form field names to problems found in their values
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}

	return "invalid book: " + strings.Join(parts, "; ")
}

// add keeps the first problem reported for a field
func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0
}

// SearchOptions are list filters as typed by the user, echoed back to the search form
type SearchOptions struct {
	Title           string
	PublishedBefore string
	PublishedAfter  string
}

func ParseSearchOptions(q url.Values) SearchOptions {
	return SearchOptions{
		Title:           strings.TrimSpace(q.Get("title")),
		PublishedBefore: strings.TrimSpace(q.Get("publishedBefore")),
		PublishedAfter:  strings.TrimSpace(q.Get("publishedAfter")),
	}
}

// Filter converts options into repository filter, unparsable dates are not applied
func (o SearchOptions) Filter() books.Filter {
	f := books.Filter{Title: o.Title}

	if d, err := time.Parse(DateLayout, o.PublishedBefore); err == nil {
		f.PublishedBefore = d
	}

	if d, err := time.Parse(DateLayout, o.PublishedAfter); err == nil {
		f.PublishedAfter = d
	}

	return f
}

// BookInput is create/update request body after field-level parsing
type BookInput struct {
	Title       string         `form:"title" validate:"required,max=300"`
	AuthorId    string         `form:"author" validate:"required,uuid"`
	PublishDate time.Time      `form:"publishDate" validate:"required"`
	PageCount   int            `form:"pageCount" validate:"gte=0"`
	Description string         `form:"description" validate:"max=10000"`
	Cover       *cover.Payload `form:"-"`

	// problems found while parsing raw values
	problems ValidationError
}

// ParseBookInput never fails, problems are reported by the operation consuming the input
func ParseBookInput(form url.Values) BookInput {
	in := BookInput{
		Title:       strings.TrimSpace(form.Get("title")),
		AuthorId:    strings.TrimSpace(form.Get("author")),
		Description: strings.TrimSpace(form.Get("description")),
	}

	if raw := strings.TrimSpace(form.Get("publishDate")); raw == "" {
		in.problems.add("publishDate", "must be provided")
	} else if d, err := time.Parse(DateLayout, raw); err != nil {
		in.problems.add("publishDate", "must be a date in YYYY-MM-DD format")
	} else {
		in.PublishDate = d
	}

	if raw := strings.TrimSpace(form.Get("pageCount")); raw == "" {
		in.problems.add("pageCount", "must be provided")
	} else if n, err := strconv.Atoi(raw); err != nil {
		in.problems.add("pageCount", "must be a whole number")
	} else {
		in.PageCount = n
	}

	p, err := cover.Decode(form.Get("cover"))
	if err != nil {
		in.problems.add("cover", "is not a valid cover image")
	} else {
		in.Cover = p
	}

	return in
}

// applyTo overwrites book fields with input, cover is replaced only when the input has one
func (in *BookInput) applyTo(book *types.Book) *ValidationError {
	book.Title = in.Title
	book.AuthorId = in.AuthorId
	book.PageCount = in.PageCount
	book.Description = in.Description
	if !in.PublishDate.IsZero() {
		book.PublishDate = in.PublishDate
	}

	verr := &ValidationError{}
	for k, v := range in.problems.Fields {
		verr.add(k, v)
	}

	if err := cover.Apply(book, in.Cover); err != nil {
		verr.add("cover", "is not a valid cover image")
	}

	if err := validate.Struct(in); err != nil {
		if ves, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ves {
				verr.add(fe.Field(), validationMessage(fe))
			}
		} else {
			verr.add("book", err.Error())
		}
	}

	if verr.empty() {
		return nil
	}

	return verr
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must be provided"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "uuid":
		return "must reference an author"
	default:
		return "is invalid"
	}
}
