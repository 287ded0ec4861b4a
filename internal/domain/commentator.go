package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownCommentator is returned when a persona number falls outside the catalog.
var ErrUnknownCommentator = errors.New("unknown commentator")

// Commentator is a persona used to voice generated commentary.
type Commentator struct {
	Name    string `yaml:"name"`
	Field   string `yaml:"field"`
	Details string `yaml:"details"`
}

// Catalog is the ordered, read-only list of commentators.
type Catalog struct {
	items []Commentator
}

// NewCatalog copies commentators into an immutable catalog.
func NewCatalog(commentators []Commentator) Catalog {
	items := make([]Commentator, len(commentators))
	copy(items, commentators)
	return Catalog{items: items}
}

// Len reports the number of commentators.
func (c Catalog) Len() int {
	return len(c.items)
}

// All returns a copy of the catalog in order.
func (c Catalog) All() []Commentator {
	out := make([]Commentator, len(c.items))
	copy(out, c.items)
	return out
}

// ByNumber resolves a 1-indexed persona number.
func (c Catalog) ByNumber(n int) (Commentator, error) {
	if n < 1 || n > len(c.items) {
		return Commentator{}, fmt.Errorf("%w: number %d outside 1..%d", ErrUnknownCommentator, n, len(c.items))
	}
	return c.items[n-1], nil
}
