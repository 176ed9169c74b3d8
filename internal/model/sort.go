package model

import (
	"fmt"
	"slices"
	"strings"
)

// SortField picks the key a view is ordered by.
type SortField int

const (
	ByInsertionOrder SortField = iota
	ByName
)

// SortDirection picks ascending or descending order.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

func (f SortField) String() string {
	if f == ByName {
		return "name"
	}
	return "added"
}

// Next cycles to the other field; used by the TUI's sort key.
func (f SortField) Next() SortField {
	if f == ByName {
		return ByInsertionOrder
	}
	return ByName
}

func (d SortDirection) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Flip returns the opposite direction.
func (d SortDirection) Flip() SortDirection {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// ParseSortField accepts "name" or "added" (also "date", "recent").
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return ByName, nil
	case "added", "date", "recent", "insertion":
		return ByInsertionOrder, nil
	}
	return 0, fmt.Errorf("unknown sort field %q (want name|added)", s)
}

// ParseSortDirection accepts "asc" or "desc" (long forms too).
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return 0, fmt.Errorf("unknown sort order %q (want asc|desc)", s)
}

// Sort returns a sorted copy of items and never touches the input.
//
// Insertion order is the store's load order, which is ascending ID, so
// it is expressed as an ID sort. That keeps Sort idempotent for every
// field/direction pair, including the reversed one.
func Sort(items []ShoppingItem, field SortField, dir SortDirection) []ShoppingItem {
	out := slices.Clone(items)
	if out == nil {
		out = []ShoppingItem{}
	}

	var cmp func(a, b ShoppingItem) int
	switch field {
	case ByName:
		cmp = func(a, b ShoppingItem) int { return strings.Compare(a.Name, b.Name) }
	default:
		cmp = func(a, b ShoppingItem) int {
			switch {
			case a.ID < b.ID:
				return -1
			case a.ID > b.ID:
				return 1
			}
			return 0
		}
	}
	if dir == Descending {
		asc := cmp
		cmp = func(a, b ShoppingItem) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, cmp)
	return out
}
