// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PageSize is the default number of rows in a paged list.
const PageSize = 50

// MaxPageSize bounds the ?limit parameter.
const MaxPageSize = 200

// ParseLimit reads ?limit, defaulting to PageSize and clamping to
// MaxPageSize.
func ParseLimit(r *http.Request) int {
	n, err := strconv.Atoi(query.Get(r, "limit"))
	if err != nil || n < 1 {
		return PageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// ParseCursor decodes ?cursor into the ObjectID to continue after. A
// missing or malformed cursor starts from the first page.
func ParseCursor(r *http.Request) *primitive.ObjectID {
	raw := query.Get(r, "cursor")
	if raw == "" {
		return nil
	}
	c, ok := wafflemongo.DecodeCursor(raw)
	if !ok || c.ID.IsZero() {
		return nil
	}
	id := c.ID
	return &id
}

// Page is one page of a keyset-paged list. Next is empty on the last page.
type Page[T any] struct {
	Items []T    `json:"items"`
	Next  string `json:"next,omitempty"`
}

// Trim builds a Page from rows fetched with limit+1 as the query limit.
// The extra row only signals that another page exists.
func Trim[T any](rows []T, limit int, idFn func(T) primitive.ObjectID) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	if len(rows) <= limit {
		return Page[T]{Items: rows}
	}
	rows = rows[:limit]
	last := rows[len(rows)-1]
	return Page[T]{Items: rows, Next: wafflemongo.EncodeCursor("", idFn(last))}
}
