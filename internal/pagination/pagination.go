// Package pagination windows in-memory lists for the admin pages.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Page is the requested window plus what is known about the list.
type Page struct {
	Number  int // 1-based
	PerPage int
	Total   int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

func (p Page) TotalPages() int {
	if p.Total <= 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.TotalPages() }

// FromRequest reads page and per_page from the query string, ignoring
// values that do not parse or are out of range.
func FromRequest(r *http.Request, defaultPerPage int) Page {
	if defaultPerPage <= 0 {
		defaultPerPage = DefaultPerPage
	}
	q := r.URL.Query()

	page := 1
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		page = n
	}
	perPage := defaultPerPage
	if n, err := strconv.Atoi(q.Get("per_page")); err == nil && n > 0 && n <= MaxPerPage {
		perPage = n
	}
	return Page{Number: page, PerPage: perPage}
}

// Slice sets p.Total and returns the items on page p. A page past the end
// yields nil.
func Slice[T any](p *Page, items []T) []T {
	p.Total = len(items)
	start := p.Offset()
	if start >= len(items) {
		return nil
	}
	end := min(start+p.PerPage, len(items))
	return items[start:end]
}

// View is what templates render: the page plus links that keep the
// other query parameters.
type View struct {
	Page
	PrevURL string
	NextURL string
}

func (p Page) View(r *http.Request) View {
	v := View{Page: p}
	if p.HasPrev() {
		v.PrevURL = pageURL(r, p.Number-1)
	}
	if p.HasNext() {
		v.NextURL = pageURL(r, p.Number+1)
	}
	return v
}

func pageURL(r *http.Request, page int) string {
	q := r.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return r.URL.Path
	}
	return r.URL.Path + "?" + q.Encode()
}
