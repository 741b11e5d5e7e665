package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"bookshelf/internal/catalog"
	"bookshelf/internal/opds"
	"bookshelf/internal/response"
	"bookshelf/internal/views"
)

const (
	pathRoot  = "/"
	pathBooks = "/books"

	recentBooks = 10

	msgCreateFailed = "Error Creating Book"
	msgUpdateFailed = "Error Updating Book"
)

// Route is one (method, path, handler) triple, the router knows nothing beyond the table it is given
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

type Options struct {
	// RateLimit is requests per second per client, zero disables limiting
	RateLimit    rate.Limit
	RateBurst    int
	MaxBodyBytes int64
	// PublicUrl prefixes links in OPDS feed
	PublicUrl string
}

type bookHandlers struct {
	svc       *catalog.Service
	rr        *response.Responder
	publicUrl string
}

// Handler builds the whole site: middleware, home page and book routes under /books.
// ctx bounds background work of middleware (rate limiter cleanup).
func Handler(ctx context.Context, svc *catalog.Service, rr *response.Responder, o Options) http.Handler {
	h := &bookHandlers{svc: svc, rr: rr, publicUrl: o.PublicUrl}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)
	if o.RateLimit > 0 {
		r.Use(NewRateLimiter(ctx, o.RateLimit, o.RateBurst, rr).Middleware)
	}
	if o.MaxBodyBytes > 0 {
		r.Use(LimitBody(o.MaxBodyBytes))
	}
	r.Use(MethodOverride(rr))

	Mount(r, []Route{{Method: http.MethodGet, Pattern: "/", Handler: h.home}})
	r.Route(pathBooks, func(r chi.Router) {
		Mount(r, h.routes())
	})

	return r
}

// Mount registers every route of the table on r
func Mount(r chi.Router, routes []Route) {
	for _, route := range routes {
		r.Method(route.Method, route.Pattern, route.Handler)
	}
}

func (h *bookHandlers) routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/", Handler: h.list},
		{Method: http.MethodGet, Pattern: "/new", Handler: h.newForm},
		{Method: http.MethodPost, Pattern: "/", Handler: h.create},
		{Method: http.MethodGet, Pattern: "/opds", Handler: h.feed},
		{Method: http.MethodGet, Pattern: "/{id}", Handler: h.show},
		{Method: http.MethodGet, Pattern: "/{id}/edit", Handler: h.editForm},
		{Method: http.MethodGet, Pattern: "/{id}/cover", Handler: h.cover},
		{Method: http.MethodPut, Pattern: "/{id}", Handler: h.update},
		{Method: http.MethodDelete, Pattern: "/{id}", Handler: h.delete},
	}
}

func (h *bookHandlers) home(w http.ResponseWriter, r *http.Request) {
	bks, err := h.svc.Recent(r.Context(), recentBooks)
	if err != nil {
		h.rr.RespondAndLogError(w, r.Context(), err)
		return
	}

	h.rr.Render(w, r.Context(), http.StatusOK, "index", views.Home{Books: bks})
}

func (h *bookHandlers) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), catalog.ParseSearchOptions(r.URL.Query()))
	if err != nil {
		h.rr.Redirect(w, r, pathRoot, err, levelOf(err))
		return
	}

	h.rr.Render(w, r.Context(), http.StatusOK, "books/index", views.BookIndex{
		Books:  list.Books,
		Search: list.Search,
	})
}

func (h *bookHandlers) newForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.svc.NewForm(r.Context())
	if err != nil {
		h.rr.Redirect(w, r, pathBooks, err, levelOf(err))
		return
	}

	h.rr.Render(w, r.Context(), http.StatusOK, "books/new", views.BookForm{
		Book:    form.Book,
		Authors: form.Authors,
	})
}

func (h *bookHandlers) create(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	book, err := h.svc.Create(r.Context(), catalog.ParseBookInput(r.PostForm))
	if err != nil {
		logFailure(r.Context(), "creating book", err)

		form, ferr := h.svc.FormFor(r.Context(), book)
		if ferr != nil {
			h.rr.Redirect(w, r, pathBooks, ferr, levelOf(ferr))
			return
		}

		h.rr.Render(w, r.Context(), http.StatusOK, "books/new", failedForm(form, msgCreateFailed, err))
		return
	}

	h.rr.Redirect(w, r, pathBooks, nil, slog.LevelInfo)
}

func (h *bookHandlers) show(w http.ResponseWriter, r *http.Request) {
	details, err := h.svc.Show(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.rr.Redirect(w, r, pathRoot, err, levelOf(err))
		return
	}

	h.rr.Render(w, r.Context(), http.StatusOK, "books/show", views.BookShow{
		Book:   details.Book,
		Author: details.Author,
	})
}

func (h *bookHandlers) editForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	form, err := h.svc.EditForm(r.Context(), id)
	if err != nil {
		h.rr.Redirect(w, r, bookPath(id), err, levelOf(err))
		return
	}

	h.rr.Render(w, r.Context(), http.StatusOK, "books/edit", views.BookForm{
		Book:    form.Book,
		Author:  form.Author,
		Authors: form.Authors,
	})
}

func (h *bookHandlers) update(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	id := chi.URLParam(r, "id")

	book, err := h.svc.Update(r.Context(), id, catalog.ParseBookInput(r.PostForm))
	if err == nil {
		h.rr.Redirect(w, r, bookPath(book.Id), nil, slog.LevelInfo)
		return
	}

	if book == nil {
		h.rr.Redirect(w, r, pathBooks, err, levelOf(err))
		return
	}

	logFailure(r.Context(), "updating book "+id, err)

	form, ferr := h.svc.FormFor(r.Context(), book)
	if ferr != nil {
		h.rr.Redirect(w, r, bookPath(id), ferr, levelOf(ferr))
		return
	}

	h.rr.Render(w, r.Context(), http.StatusOK, "books/edit", failedForm(form, msgUpdateFailed, err))
}

func (h *bookHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.svc.Delete(r.Context(), id)
	switch {
	case err == nil:
		h.rr.Redirect(w, r, pathBooks, nil, slog.LevelInfo)
	case errors.Is(err, catalog.ErrNotFound):
		h.rr.Redirect(w, r, pathBooks, err, levelOf(err))
	default:
		h.rr.Redirect(w, r, bookPath(id), err, levelOf(err))
	}
}

func (h *bookHandlers) cover(w http.ResponseWriter, r *http.Request) {
	book, err := h.svc.Cover(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			h.rr.RespondAndLogCustom(w, r.Context(), err, slog.LevelInfo, http.StatusNotFound)
		} else {
			h.rr.RespondAndLogError(w, r.Context(), err)
		}
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=300")
	h.rr.Send(w, book.CoverImageType, book.CoverImage)
}

func (h *bookHandlers) feed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.svc.Feed(r.Context(), catalog.ParseSearchOptions(r.URL.Query()))
	if err != nil {
		h.rr.RespondAndLogError(w, r.Context(), err)
		return
	}

	bs, err := opds.Marshal(opds.Build(feed.Books, feed.Authors, h.publicUrl, r.URL.RequestURI(), time.Now()))
	if err != nil {
		h.rr.RespondAndLogError(w, r.Context(), fmt.Errorf("encoding OPDS feed: %w", err))
		return
	}

	h.rr.Send(w, opds.ContentType, bs)
}

func (h *bookHandlers) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		respondFormError(h.rr, w, r, err)
		return false
	}
	return true
}

func failedForm(form *catalog.BookForm, message string, err error) views.BookForm {
	ret := views.BookForm{
		Book:         form.Book,
		Author:       form.Author,
		Authors:      form.Authors,
		ErrorMessage: message,
	}

	var verr *catalog.ValidationError
	if errors.As(err, &verr) {
		ret.FieldErrors = verr.Fields
	}

	return ret
}

func logFailure(ctx context.Context, what string, err error) {
	slog.Log(ctx, levelOf(err), "Failed "+what+": "+err.Error())
}

// levelOf tells user mistakes (info) from failures worth attention (error)
func levelOf(err error) slog.Level {
	var verr *catalog.ValidationError
	if errors.Is(err, catalog.ErrNotFound) || errors.As(err, &verr) {
		return slog.LevelInfo
	}
	return slog.LevelError
}

func bookPath(id string) string {
	return pathBooks + "/" + url.PathEscape(id)
}
