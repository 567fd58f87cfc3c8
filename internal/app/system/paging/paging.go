// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultPageSize is the number of rows returned when the client does
// not ask for a limit. MaxPageSize caps what a client may ask for.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a parsed page/limit pair. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// Parse reads the "page" and "limit" query parameters, clamping bad or
// missing values to sane defaults.
func Parse(r *http.Request) Page {
	p := Page{Number: 1, Size: DefaultPageSize}

	if s := query.Get(r, "page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Number = n
		}
	}
	if s := query.Get(r, "limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Size = n
		}
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Skip returns the number of documents to skip for this page.
func (p Page) Skip() int64 { return int64(p.Number-1) * int64(p.Size) }

// Limit returns the page size as int64 for Find().SetLimit().
func (p Page) Limit() int64 { return int64(p.Size) }

// ApplyToFind sets skip, limit, and sort on FindOptions.
func (p Page) ApplyToFind(find *options.FindOptions, sort bson.D) {
	find.SetSort(sort).SetSkip(p.Skip()).SetLimit(p.Limit())
}

// Meta is the pagination block returned alongside list results.
type Meta struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
}

// Meta computes the pagination block for a total document count.
func (p Page) Meta(total int64) Meta {
	pages := int((total + int64(p.Size) - 1) / int64(p.Size))
	if pages < 1 {
		pages = 1
	}
	return Meta{Current: p.Number, Pages: pages, Total: total}
}
