package collection

import (
	"sync"

	"neuroncore/pkg/domain"
)

// Compile-time contract assertion.
var _ List = (*LazyCollection)(nil)

// Loader fetches the element for a key on first access. Implementations are
// typically closures over a blob store or other element source.
type Loader func(key string) (any, error)

// lazyCache is shared between a lazy collection and every slice derived from
// it, so an element loaded through one view is visible to all.
type lazyCache struct {
	mu   sync.Mutex
	vals map[string]any
}

// LazyCollection is a List whose elements are fetched through a Loader on
// first access and cached thereafter. Slicing preserves laziness: unloaded
// elements stay unloaded. Bulk apply materializes its result as an in-memory
// Collection.
type LazyCollection struct {
	keys   []string
	index  map[string]int
	loader Loader
	cache  *lazyCache
	table  *Table
}

// NewLazy builds a lazy collection over the given keys. Duplicate or empty
// keys are a ConfigError; a nil loader is a ConfigError.
func NewLazy(keys []string, loader Loader) (*LazyCollection, error) {
	if loader == nil {
		return nil, domain.ConfigError{Reason: "nil loader"}
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
	return &LazyCollection{
		keys:   append([]string(nil), keys...),
		index:  index,
		loader: loader,
		cache:  &lazyCache{vals: make(map[string]any)},
	}, nil
}

// Len returns the number of elements.
func (c *LazyCollection) Len() int { return len(c.keys) }

// Keys returns the keys in collection order.
func (c *LazyCollection) Keys() []string { return append([]string(nil), c.keys...) }

// Contains reports whether key names an element.
func (c *LazyCollection) Contains(key string) bool {
	_, ok := c.index[key]
	return ok
}

// Element returns the element named by key, loading it on first access.
func (c *LazyCollection) Element(key string) (any, error) {
	if _, ok := c.index[key]; !ok {
		return nil, domain.KeyNotFoundError{Key: key}
	}
	c.cache.mu.Lock()
	if v, ok := c.cache.vals[key]; ok {
		c.cache.mu.Unlock()
		return v, nil
	}
	c.cache.mu.Unlock()
	// load outside the lock; concurrent loads of the same key race benignly
	// since the loader is expected to be deterministic per key
	v, err := c.loader(key)
	if err != nil {
		return nil, err
	}
	c.cache.mu.Lock()
	c.cache.vals[key] = v
	c.cache.mu.Unlock()
	return v, nil
}

// At returns the element at position i, loading it on first access.
func (c *LazyCollection) At(i int) (any, error) {
	if i < 0 || i >= len(c.keys) {
		return nil, domain.IndexOutOfRangeError{Index: i, Len: len(c.keys)}
	}
	return c.Element(c.keys[i])
}

// Table returns the attached metadata table, or nil.
func (c *LazyCollection) Table() *Table { return c.table }

// WithTable attaches t under the same validation rules as Collection.
func (c *LazyCollection) WithTable(t *Table) (List, error) {
	cp := *c
	if t == nil {
		cp.table = nil
		return &cp, nil
	}
	aligned, err := t.alignTo(c.keys)
	if err != nil {
		return nil, err
	}
	cp.table = aligned
	return &cp, nil
}

// Slice returns a new lazy collection over exactly the given keys in the
// given order, sharing the loader and cache, with the attached table
// row-sliced in lockstep.
func (c *LazyCollection) Slice(keys []string) (List, error) {
	index := make(map[string]int, len(keys))
	for _, key := range keys {
		if _, dup := index[key]; dup {
			return nil, domain.Configf("duplicate key %q in slice", key)
		}
		if _, ok := c.index[key]; !ok {
			return nil, domain.KeyNotFoundError{Key: key}
		}
		index[key] = len(index)
	}
	out := &LazyCollection{
		keys:   append([]string(nil), keys...),
		index:  index,
		loader: c.loader,
		cache:  c.cache,
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

// Materialize loads every element and returns the equivalent in-memory
// collection, table included.
func (c *LazyCollection) Materialize() (*Collection, error) {
	elements := make([]any, 0, len(c.keys))
	for _, key := range c.keys {
		el, err := c.Element(key)
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
	}
	out, err := New(elements, c.keys)
	if err != nil {
		return nil, err
	}
	if c.table != nil {
		withTable, err := out.WithTable(c.table)
		if err != nil {
			return nil, err
		}
		out = withTable.(*Collection)
	}
	return out, nil
}
