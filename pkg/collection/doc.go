// Package collection implements an ordered, name-keyed container for opaque
// elements together with an optional metadata table kept row-aligned with the
// container keys.
//
// The package revolves around a single invariant: whenever a table is
// attached, its row keys equal the collection keys positionally, not just as
// sets. Every operation that narrows, reorders, combines, or transforms a
// collection funnels through Slice, which moves the table in lockstep, so
// the invariant holds after construction, combination, bulk apply, and
// subsetting alike.
//
// Two implementations share the List contract: Collection holds elements in
// memory, LazyCollection fetches them through a Loader on first access. Bulk
// apply and the subset engine are written against List only.
package collection
