package product

import (
	"strings"
	"time"
)

// Product is one of the fixed product lines hours are split across.
type Product string

const (
	Academy   Product = "Academy"
	Intensive Product = "Intensive"
	NIAT      Product = "NIAT"
)

// All lists the products in display order.
var All = []Product{Academy, Intensive, NIAT}

// Parse matches a product name case-insensitively.
func Parse(raw string) (Product, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, p := range All {
		if strings.EqualFold(trimmed, string(p)) {
			return p, true
		}
	}
	return "", false
}

// Index returns the display position of p, or -1 when unknown.
func (p Product) Index() int {
	for i, candidate := range All {
		if candidate == p {
			return i
		}
	}
	return -1
}

// ID is the 1-based display position clients use to refer to p.
func (p Product) ID() int {
	return p.Index() + 1
}

// FromID resolves the display position returned by ID.
func FromID(id int) (Product, bool) {
	if id < 1 || id > len(All) {
		return "", false
	}
	return All[id-1], true
}

type Feature struct {
	ID          string
	Name        string
	Product     Product
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
