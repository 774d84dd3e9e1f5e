package collection

import (
	"context"
	"fmt"

	"neuroncore/pkg/domain"
)

// Spec is a subset specification: one of Mask, Indices, Keys, or Predicate.
// A nil Spec selects every key in collection order.
type Spec interface {
	spec()
}

// Mask selects by position. Its length must equal the collection length; a
// nil entry is an undefined value and the position is excluded, never an
// error.
type Mask []*bool

func (Mask) spec() {}

// MaskOf builds a fully defined mask from booleans.
func MaskOf(vals ...bool) Mask {
	m := make(Mask, len(vals))
	for i := range vals {
		v := vals[i]
		m[i] = &v
	}
	return m
}

// Indices selects by 0-based position into the current key order.
// Out-of-range and negative entries are dropped silently so callers can
// compose against stale positions without crashing; duplicates keep their
// first occurrence.
type Indices []int

func (Indices) spec() {}

// Keys selects by literal key. Keys absent from the collection are dropped
// and surfaced as a counted warning, in deliberate contrast with the strict
// direct accessors.
type Keys []string

func (Keys) spec() {}

// Predicate selects against the attached metadata table: it receives the
// table (nil when none is attached) and returns a further Spec, which is
// resolved recursively. A nil result selects everything.
type Predicate func(t *Table) (Spec, error)

func (Predicate) spec() {}

// Resolve reduces a specification to a concrete ordered key slice.
func Resolve(src List, spec Spec) ([]string, Report, error) {
	var report Report
	keys, err := resolve(src, spec, &report, 0)
	if err != nil {
		return nil, report, err
	}
	return keys, report, nil
}

// predicates returning predicates are legal; the depth guard turns a cycle
// into an error instead of a stack overflow.
const maxPredicateDepth = 32

func resolve(src List, spec Spec, report *Report, depth int) ([]string, error) {
	switch s := spec.(type) {
	case nil:
		return src.Keys(), nil
	case Mask:
		if len(s) != src.Len() {
			return nil, domain.Configf("mask of length %d for collection of length %d", len(s), src.Len())
		}
		all := src.Keys()
		var keys []string
		for i, v := range s {
			if v != nil && *v {
				keys = append(keys, all[i])
			}
		}
		return keys, nil
	case Indices:
		all := src.Keys()
		var keys []string
		seen := make(map[int]struct{}, len(s))
		for _, i := range s {
			if i < 0 || i >= len(all) {
				continue
			}
			if _, dup := seen[i]; dup {
				continue
			}
			seen[i] = struct{}{}
			keys = append(keys, all[i])
		}
		return keys, nil
	case Keys:
		var keys []string
		missing := 0
		seen := make(map[string]struct{}, len(s))
		for _, key := range s {
			if !src.Contains(key) {
				missing++
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		report.warn("subset", "keys not present in collection", missing)
		return keys, nil
	case Predicate:
		if depth >= maxPredicateDepth {
			return nil, domain.Configf("predicate nesting exceeds %d levels", maxPredicateDepth)
		}
		next, err := s(src.Table())
		if err != nil {
			return nil, fmt.Errorf("subset predicate: %w", err)
		}
		return resolve(src, next, report, depth+1)
	default:
		return nil, domain.Configf("unknown subset specification %T", spec)
	}
}

// FilterFunc is a per-element predicate applied after subset resolution.
type FilterFunc func(ctx context.Context, key string, element any) (bool, error)

// Filter narrows keys by applying fn to each named element in order. A
// failing element never aborts the pass: elements whose call errors are
// treated as undefined, dropped, and surfaced as a counted warning.
func Filter(ctx context.Context, src List, keys []string, fn FilterFunc) ([]string, Report, error) {
	var report Report
	kept := make([]string, 0, len(keys))
	suppressed := 0
	for _, key := range keys {
		el, err := src.Element(key)
		if err != nil {
			suppressed++
			continue
		}
		keep, err := fn(ctx, key, el)
		if err != nil {
			suppressed++
			continue
		}
		if keep {
			kept = append(kept, key)
		}
	}
	report.warn("filter", "element failures suppressed", suppressed)
	return kept, report, nil
}

type subsetConfig struct {
	filter FilterFunc
}

// SubsetOption configures Subset.
type SubsetOption func(*subsetConfig)

// WithFilter narrows the resolved keys with a per-element predicate.
func WithFilter(fn FilterFunc) SubsetOption {
	return func(cfg *subsetConfig) { cfg.filter = fn }
}

// SubsetKeys resolves spec and applies any configured filter, returning the
// surviving keys in collection-spec order.
func SubsetKeys(ctx context.Context, src List, spec Spec, opts ...SubsetOption) ([]string, Report, error) {
	var cfg subsetConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	keys, report, err := Resolve(src, spec)
	if err != nil {
		return nil, report, err
	}
	if cfg.filter != nil {
		filtered, fReport, err := Filter(ctx, src, keys, cfg.filter)
		report.Merge(fReport)
		if err != nil {
			return nil, report, err
		}
		keys = filtered
	}
	return keys, report, nil
}

// Subset materializes the narrowed collection, preserving the concrete
// collection kind via Slice and keeping the attached table row-aligned.
func Subset(ctx context.Context, src List, spec Spec, opts ...SubsetOption) (List, Report, error) {
	keys, report, err := SubsetKeys(ctx, src, spec, opts...)
	if err != nil {
		return nil, report, err
	}
	out, err := src.Slice(keys)
	if err != nil {
		return nil, report, err
	}
	return out, report, nil
}

// SubsetTable materializes the metadata rows of the narrowed collection, or
// nil when no table is attached.
func SubsetTable(ctx context.Context, src List, spec Spec, opts ...SubsetOption) (*Table, Report, error) {
	keys, report, err := SubsetKeys(ctx, src, spec, opts...)
	if err != nil {
		return nil, report, err
	}
	t := src.Table()
	if t == nil {
		return nil, report, nil
	}
	sliced, err := t.Slice(keys)
	if err != nil {
		return nil, report, err
	}
	return sliced, report, nil
}
