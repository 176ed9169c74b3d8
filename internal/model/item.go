package model

// ShoppingItem is the domain model for a shopping-list entry.
// ID is zero until the store assigns one.
type ShoppingItem struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Bought bool   `json:"bought"`
}

// Toggled returns a copy with Bought flipped.
func (it ShoppingItem) Toggled() ShoppingItem {
	it.Bought = !it.Bought
	return it
}

// Counts splits items into bought and still-to-buy totals.
func Counts(items []ShoppingItem) (bought, pending int) {
	for _, it := range items {
		if it.Bought {
			bought++
		} else {
			pending++
		}
	}
	return
}

// IndexOf returns the position of the item with the given ID, or -1.
func IndexOf(items []ShoppingItem, id int64) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
