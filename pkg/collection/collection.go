package collection

import (
	"neuroncore/pkg/domain"
)

// Compile-time contract assertion.
var _ List = (*Collection)(nil)

// Collection is the in-memory List implementation: unique keys positionally
// aligned with elements, plus an optional attached table. Collections are
// immutable after construction; mutating operations return a new Collection
// sharing element references, so holders of a previous value keep a stable
// snapshot.
type Collection struct {
	keys     []string
	index    map[string]int
	elements []any
	table    *Table
}

// New builds a collection from elements and their keys. When keys is nil,
// each element must implement domain.Named and keys are derived from the
// intrinsic names. Empty or duplicate keys are a ConfigError.
func New(elements []any, keys []string) (*Collection, error) {
	if keys == nil {
		keys = make([]string, 0, len(elements))
		for i, el := range elements {
			named, ok := el.(domain.Named)
			if !ok {
				return nil, domain.Configf("element %d has no intrinsic name and no key was supplied", i)
			}
			keys = append(keys, named.Name())
		}
	}
	if len(keys) != len(elements) {
		return nil, domain.Configf("%d keys for %d elements", len(keys), len(elements))
	}
	index := make(map[string]int, len(keys))
	for i, key := range keys {
		if key == "" {
			return nil, domain.Configf("empty key at position %d", i)
		}
		if _, dup := index[key]; dup {
			return nil, domain.Configf("duplicate key %q", key)
		}
		index[key] = i
	}
	return &Collection{
		keys:     append([]string(nil), keys...),
		index:    index,
		elements: append([]any(nil), elements...),
	}, nil
}

// Len returns the number of elements.
func (c *Collection) Len() int { return len(c.keys) }

// Keys returns the keys in collection order.
func (c *Collection) Keys() []string { return append([]string(nil), c.keys...) }

// Contains reports whether key names an element.
func (c *Collection) Contains(key string) bool {
	_, ok := c.index[key]
	return ok
}

// Element returns the element named by key.
func (c *Collection) Element(key string) (any, error) {
	i, ok := c.index[key]
	if !ok {
		return nil, domain.KeyNotFoundError{Key: key}
	}
	return c.elements[i], nil
}

// At returns the element at position i.
func (c *Collection) At(i int) (any, error) {
	if i < 0 || i >= len(c.elements) {
		return nil, domain.IndexOutOfRangeError{Index: i, Len: len(c.elements)}
	}
	return c.elements[i], nil
}

// Table returns the attached metadata table, or nil.
func (c *Collection) Table() *Table { return c.table }

// WithTable attaches t after validating the row-key invariant: the row count
// must equal the collection length, absent row keys are derived from the
// collection keys, and row keys naming a different key set are a
// ConfigError. Rows keyed in a different order are realigned. A nil t
// detaches the current table.
func (c *Collection) WithTable(t *Table) (List, error) {
	cp := c.shallowCopy()
	if t == nil {
		cp.table = nil
		return cp, nil
	}
	aligned, err := t.alignTo(c.keys)
	if err != nil {
		return nil, err
	}
	cp.table = aligned
	return cp, nil
}

// Slice returns a new Collection containing exactly the given keys in the
// given order, with the attached table row-sliced in lockstep.
func (c *Collection) Slice(keys []string) (List, error) {
	elements := make([]any, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			return nil, domain.Configf("duplicate key %q in slice", key)
		}
		seen[key] = struct{}{}
		i, ok := c.index[key]
		if !ok {
			return nil, domain.KeyNotFoundError{Key: key}
		}
		elements = append(elements, c.elements[i])
	}
	out, err := New(elements, keys)
	if err != nil {
		return nil, err
	}
	if c.table != nil {
		sliced, err := c.table.Slice(keys)
		if err != nil {
			return nil, err
		}
		out.table = sliced
	}
	return out, nil
}

// Set returns a new collection with key bound to element: existing keys are
// replaced in place, new keys appended. When a table is attached, appending
// adds a row of missing values for the new key.
func (c *Collection) Set(key string, element any) (*Collection, error) {
	if key == "" {
		return nil, domain.ConfigError{Reason: "empty key"}
	}
	cp := c.shallowCopy()
	if i, ok := cp.index[key]; ok {
		cp.elements = append([]any(nil), c.elements...)
		cp.elements[i] = element
		return cp, nil
	}
	cp.keys = append(c.Keys(), key)
	cp.elements = append(append([]any(nil), c.elements...), element)
	cp.index = indexKeys(cp.keys)
	if c.table != nil {
		grown, err := c.table.appendRow(key)
		if err != nil {
			return nil, err
		}
		cp.table = grown
	}
	return cp, nil
}

// Remove returns a new collection without the named element and its table
// row. Removing an absent key is a KeyNotFoundError.
func (c *Collection) Remove(key string) (*Collection, error) {
	i, ok := c.index[key]
	if !ok {
		return nil, domain.KeyNotFoundError{Key: key}
	}
	return c.RemoveAt(i)
}

// RemoveAt returns a new collection without the element at position i.
func (c *Collection) RemoveAt(i int) (*Collection, error) {
	if i < 0 || i >= len(c.keys) {
		return nil, domain.IndexOutOfRangeError{Index: i, Len: len(c.keys)}
	}
	keys := make([]string, 0, len(c.keys)-1)
	keys = append(keys, c.keys[:i]...)
	keys = append(keys, c.keys[i+1:]...)
	sliced, err := c.Slice(keys)
	if err != nil {
		return nil, err
	}
	return sliced.(*Collection), nil
}

func (c *Collection) shallowCopy() *Collection {
	cp := *c
	return &cp
}

func indexKeys(keys []string) map[string]int {
	index := make(map[string]int, len(keys))
	for i, key := range keys {
		index[key] = i
	}
	return index
}
