package collection

// List is the public contract shared by collection implementations. Direct
// access is strict: Element and At fail on absent keys and out-of-range
// positions. The subset engine deliberately relaxes the equivalent lookups
// to drop-and-warn; see Resolve.
type List interface {
	// Len returns the number of elements.
	Len() int
	// Keys returns the keys in collection order. The slice is a copy.
	Keys() []string
	// Contains reports whether key names an element.
	Contains(key string) bool
	// Element returns the element named by key, or a KeyNotFoundError.
	Element(key string) (any, error)
	// At returns the element at position i, or an IndexOutOfRangeError.
	At(i int) (any, error)
	// Table returns the attached metadata table, or nil.
	Table() *Table
	// WithTable returns a copy of the collection with t attached after
	// validating the row-key invariant. A nil t detaches.
	WithTable(t *Table) (List, error)
	// Slice returns a new collection of the same kind containing exactly
	// the given keys in the given order, with any attached table row-sliced
	// in the same order. Unknown keys are a KeyNotFoundError and duplicate
	// keys a ConfigError: callers resolve loose specifications first.
	Slice(keys []string) (List, error)
}
