package domain

import (
	"encoding/json"
	"slices"
)

// CartEntry is one product line in a cart. Quantity is always positive.
type CartEntry struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// MaxQuantity caps the units of one product a cart can hold. Larger requests
// are clamped.
const MaxQuantity = 999

// Cart maps product ids to quantities for a single session.
//
// A Cart is a value: every mutating method returns a new Cart and leaves
// the receiver untouched. The zero value is an empty cart.
type Cart struct {
	items map[int64]int
}

func NewCart() Cart {
	return Cart{}
}

// CartFrom builds a cart from entries, summing duplicates, capping them at
// MaxQuantity and dropping any entry whose resulting quantity is not positive.
func CartFrom(entries ...CartEntry) Cart {
	items := make(map[int64]int, len(entries))
	for _, e := range entries {
		items[e.ProductID] = clampQuantity(items[e.ProductID] + clampQuantity(e.Quantity))
	}
	for id, q := range items {
		if q <= 0 {
			delete(items, id)
		}
	}
	return Cart{items: items}
}

// Add increments the quantity of productID by one, starting at one when absent.
func (c Cart) Add(productID int64) Cart {
	next := c.clone()
	next.items[productID] = clampQuantity(next.items[productID] + 1)
	return next
}

// SetQuantity sets the quantity of productID, capped at MaxQuantity. A
// quantity of zero or less removes the entry.
func (c Cart) SetQuantity(productID int64, quantity int) Cart {
	if quantity <= 0 {
		return c.Remove(productID)
	}
	next := c.clone()
	next.items[productID] = clampQuantity(quantity)
	return next
}

func (c Cart) Remove(productID int64) Cart {
	next := c.clone()
	delete(next.items, productID)
	return next
}

func (c Cart) Clear() Cart {
	return Cart{}
}

func (c Cart) Quantity(productID int64) int {
	return c.items[productID]
}

func (c Cart) Len() int {
	return len(c.items)
}

func (c Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// ProductIDs returns the ids in the cart in ascending order.
func (c Cart) ProductIDs() []int64 {
	ids := make([]int64, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Entries returns the cart contents ordered by product id.
func (c Cart) Entries() []CartEntry {
	ids := c.ProductIDs()
	entries := make([]CartEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, CartEntry{ProductID: id, Quantity: c.items[id]})
	}
	return entries
}

// Snapshot returns an independent copy of the cart.
func (c Cart) Snapshot() Cart {
	return c.clone()
}

func clampQuantity(q int) int {
	return min(q, MaxQuantity)
}

func (c Cart) clone() Cart {
	items := make(map[int64]int, len(c.items)+1)
	for id, q := range c.items {
		items[id] = q
	}
	return Cart{items: items}
}

func (c Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Entries())
}

func (c *Cart) UnmarshalJSON(data []byte) error {
	var entries []CartEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*c = CartFrom(entries...)
	return nil
}
