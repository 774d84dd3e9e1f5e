package collection

import (
	"neuroncore/pkg/domain"
)

// Combine merges the given collections into one, concatenating elements and
// keys in input order. A key present in more than one input is a
// ConfigError, never a silent overwrite.
//
// Table handling: when no input carries a table the result carries none.
// Otherwise the result table is the outer-join union of the input tables by
// column name, with rows from inputs lacking a column padded with the
// missing-value sentinel. Inputs without a table contribute zero-column
// segments, so every key keeps its row.
func Combine(lists ...List) (*Collection, error) {
	var total int
	for _, l := range lists {
		total += l.Len()
	}
	keys := make([]string, 0, total)
	elements := make([]any, 0, total)
	seen := make(map[string]struct{}, total)
	for _, l := range lists {
		for _, key := range l.Keys() {
			if _, dup := seen[key]; dup {
				return nil, domain.Configf("duplicate key %q across combined collections", key)
			}
			seen[key] = struct{}{}
			el, err := l.Element(key)
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
			elements = append(elements, el)
		}
	}
	out, err := New(elements, keys)
	if err != nil {
		return nil, err
	}
	table, err := unionTables(lists)
	if err != nil {
		return nil, err
	}
	if table != nil {
		withTable, err := out.WithTable(table)
		if err != nil {
			return nil, err
		}
		out = withTable.(*Collection)
	}
	return out, nil
}

// unionTables builds the combined metadata table, or nil when no input has
// one. Column order is first-seen order across inputs.
func unionTables(lists []List) (*Table, error) {
	tabled := false
	for _, l := range lists {
		if l.Table() != nil {
			tabled = true
			break
		}
	}
	if !tabled {
		return nil, nil
	}

	var names []string
	known := make(map[string]struct{})
	for _, l := range lists {
		t := l.Table()
		if t == nil {
			continue
		}
		for _, name := range t.Columns() {
			if _, ok := known[name]; ok {
				continue
			}
			known[name] = struct{}{}
			names = append(names, name)
		}
	}

	var rowKeys []string
	values := make(map[string][]any, len(names))
	for _, l := range lists {
		segKeys := l.Keys()
		rowKeys = append(rowKeys, segKeys...)
		t := l.Table()
		for _, name := range names {
			var segVals []any
			if t != nil {
				if col, ok := t.Column(name); ok {
					segVals = col
				}
			}
			if segVals == nil {
				segVals = make([]any, len(segKeys))
			}
			values[name] = append(values[name], segVals...)
		}
	}

	cols := make([]Column, 0, len(names))
	for _, name := range names {
		cols = append(cols, Column{Name: name, Values: values[name]})
	}
	return NewTable(rowKeys, cols...)
}
