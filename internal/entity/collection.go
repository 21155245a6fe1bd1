package entity

import "fmt"

// Identified is implemented by records that live in a Collection.
type Identified interface {
	EntityID() string
}

// Collection is an insertion-ordered list of records keyed by ID. Removal is
// by identity, never by position or content.
type Collection[T Identified] struct {
	items []T
	index map[string]struct{}
}

// NewCollection returns an empty collection.
func NewCollection[T Identified]() *Collection[T] {
	return &Collection[T]{index: make(map[string]struct{})}
}

// Add appends item. It fails when the ID is blank or already present.
func (c *Collection[T]) Add(item T) error {
	id := item.EntityID()
	if id == "" {
		return fmt.Errorf("add entity: blank id")
	}
	if c.index == nil {
		c.index = make(map[string]struct{})
	}
	if _, exists := c.index[id]; exists {
		return fmt.Errorf("add entity: duplicate id %q", id)
	}
	c.items = append(c.items, item)
	c.index[id] = struct{}{}
	return nil
}

// Remove deletes the record with the given ID and reports whether one existed.
func (c *Collection[T]) Remove(id string) bool {
	if _, ok := c.index[id]; !ok {
		return false
	}
	delete(c.index, id)
	for i, item := range c.items {
		if item.EntityID() == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the record with the given ID.
func (c *Collection[T]) Get(id string) (T, bool) {
	var zero T
	if _, ok := c.index[id]; !ok {
		return zero, false
	}
	for _, item := range c.items {
		if item.EntityID() == id {
			return item, true
		}
	}
	return zero, false
}

// Has reports whether a record with the given ID exists.
func (c *Collection[T]) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Items returns a copy of the records in insertion order.
func (c *Collection[T]) Items() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// IDs returns the record IDs in insertion order.
func (c *Collection[T]) IDs() []string {
	out := make([]string, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item.EntityID())
	}
	return out
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	return len(c.items)
}
