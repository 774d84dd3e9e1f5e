package collection

import (
	"neuroncore/pkg/domain"
)

// Column pairs a name with its ordered values, used to construct tables.
type Column struct {
	Name   string
	Values []any
}

// Table is a row-indexed metadata table. Row keys are unique and, once the
// table is attached to a collection, positionally identical to the
// collection keys. The missing-value sentinel is an untyped nil. Tables are
// immutable after construction; deriving operations return new tables.
type Table struct {
	names    []string
	cols     map[string][]any
	rowKeys  []string
	rowIndex map[string]int
	nrows    int
	keyed    bool
}

// NewTable builds a table from row keys and columns. rowKeys may be nil for
// a standalone table whose keys are derived at attach time; in that case all
// columns must agree on length. Duplicate row keys or column names, and
// column lengths disagreeing with the row count, are ConfigErrors.
func NewTable(rowKeys []string, cols ...Column) (*Table, error) {
	t := &Table{cols: make(map[string][]any, len(cols))}
	if rowKeys != nil {
		t.keyed = true
		t.nrows = len(rowKeys)
		t.rowKeys = append([]string(nil), rowKeys...)
		t.rowIndex = make(map[string]int, len(rowKeys))
		for i, key := range rowKeys {
			if key == "" {
				return nil, domain.Configf("empty row key at position %d", i)
			}
			if _, dup := t.rowIndex[key]; dup {
				return nil, domain.Configf("duplicate row key %q", key)
			}
			t.rowIndex[key] = i
		}
	} else if len(cols) > 0 {
		t.nrows = len(cols[0].Values)
	}
	for _, col := range cols {
		if col.Name == "" {
			return nil, domain.ConfigError{Reason: "empty column name"}
		}
		if _, dup := t.cols[col.Name]; dup {
			return nil, domain.Configf("duplicate column %q", col.Name)
		}
		if len(col.Values) != t.nrows {
			return nil, domain.Configf("column %q has %d values for %d rows", col.Name, len(col.Values), t.nrows)
		}
		t.names = append(t.names, col.Name)
		t.cols[col.Name] = append([]any(nil), col.Values...)
	}
	return t, nil
}

// NRows returns the number of rows.
func (t *Table) NRows() int { return t.nrows }

// Columns returns the column names in table order.
func (t *Table) Columns() []string { return append([]string(nil), t.names...) }

// Column returns the named column's values in row order.
func (t *Table) Column(name string) ([]any, bool) {
	vals, ok := t.cols[name]
	if !ok {
		return nil, false
	}
	return append([]any(nil), vals...), true
}

// RowKeys returns the row keys in order, or nil for an unkeyed table.
func (t *Table) RowKeys() []string {
	if !t.keyed {
		return nil
	}
	return append([]string(nil), t.rowKeys...)
}

// Row returns the named row as a column-name to value mapping.
func (t *Table) Row(key string) (map[string]any, bool) {
	if !t.keyed {
		return nil, false
	}
	i, ok := t.rowIndex[key]
	if !ok {
		return nil, false
	}
	return t.rowAt(i), true
}

// RowAt returns the row at position i.
func (t *Table) RowAt(i int) (map[string]any, error) {
	if i < 0 || i >= t.nrows {
		return nil, domain.IndexOutOfRangeError{Index: i, Len: t.nrows}
	}
	return t.rowAt(i), nil
}

func (t *Table) rowAt(i int) map[string]any {
	row := make(map[string]any, len(t.names))
	for _, name := range t.names {
		row[name] = t.cols[name][i]
	}
	return row
}

// Value returns the cell at the named row and column.
func (t *Table) Value(key, column string) (any, error) {
	if !t.keyed {
		return nil, domain.ConfigError{Reason: "table has no row keys"}
	}
	i, ok := t.rowIndex[key]
	if !ok {
		return nil, domain.KeyNotFoundError{Key: key}
	}
	vals, ok := t.cols[column]
	if !ok {
		return nil, domain.Configf("no column %q", column)
	}
	return vals[i], nil
}

// WithColumn returns a new table with the column appended, replacing any
// existing column of the same name in place.
func (t *Table) WithColumn(name string, values []any) (*Table, error) {
	if name == "" {
		return nil, domain.ConfigError{Reason: "empty column name"}
	}
	if len(values) != t.nrows {
		return nil, domain.Configf("column %q has %d values for %d rows", name, len(values), t.nrows)
	}
	cp := t.clone()
	if _, exists := cp.cols[name]; !exists {
		cp.names = append(cp.names, name)
	}
	cp.cols[name] = append([]any(nil), values...)
	return cp, nil
}

// Slice returns a new table containing exactly the given rows in the given
// order. The table must be keyed; unknown keys are a KeyNotFoundError.
func (t *Table) Slice(keys []string) (*Table, error) {
	if !t.keyed {
		return nil, domain.ConfigError{Reason: "cannot slice a table without row keys"}
	}
	positions := make([]int, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			return nil, domain.Configf("duplicate row key %q in slice", key)
		}
		seen[key] = struct{}{}
		i, ok := t.rowIndex[key]
		if !ok {
			return nil, domain.KeyNotFoundError{Key: key}
		}
		positions = append(positions, i)
	}
	cols := make([]Column, 0, len(t.names))
	for _, name := range t.names {
		src := t.cols[name]
		vals := make([]any, len(positions))
		for j, i := range positions {
			vals[j] = src[i]
		}
		cols = append(cols, Column{Name: name, Values: vals})
	}
	return NewTable(keys, cols...)
}

// alignTo validates the table against the given collection keys and returns
// a table whose row keys equal them positionally. An unkeyed table adopts
// the keys; a keyed table must name exactly the same set and is reordered
// when necessary.
func (t *Table) alignTo(keys []string) (*Table, error) {
	if t.nrows != len(keys) {
		return nil, domain.Configf("table has %d rows for collection of length %d", t.nrows, len(keys))
	}
	if !t.keyed {
		cols := make([]Column, 0, len(t.names))
		for _, name := range t.names {
			cols = append(cols, Column{Name: name, Values: t.cols[name]})
		}
		return NewTable(keys, cols...)
	}
	for _, key := range keys {
		if _, ok := t.rowIndex[key]; !ok {
			return nil, domain.Configf("table row keys conflict with collection keys: no row for %q", key)
		}
	}
	ordered := true
	for i, key := range keys {
		if t.rowKeys[i] != key {
			ordered = false
			break
		}
	}
	if ordered {
		return t.clone(), nil
	}
	return t.Slice(keys)
}

// appendRow returns a new table with one row of missing values added for key.
func (t *Table) appendRow(key string) (*Table, error) {
	if !t.keyed {
		return nil, domain.ConfigError{Reason: "cannot append a row to a table without row keys"}
	}
	if _, dup := t.rowIndex[key]; dup {
		return nil, domain.Configf("duplicate row key %q", key)
	}
	cols := make([]Column, 0, len(t.names))
	for _, name := range t.names {
		cols = append(cols, Column{Name: name, Values: append(append([]any(nil), t.cols[name]...), nil)})
	}
	return NewTable(append(t.RowKeys(), key), cols...)
}

func (t *Table) clone() *Table {
	cp := &Table{
		names:   append([]string(nil), t.names...),
		cols:    make(map[string][]any, len(t.cols)),
		nrows:   t.nrows,
		keyed:   t.keyed,
		rowKeys: append([]string(nil), t.rowKeys...),
	}
	if t.rowIndex != nil {
		cp.rowIndex = make(map[string]int, len(t.rowIndex))
		for k, v := range t.rowIndex {
			cp.rowIndex[k] = v
		}
	}
	for name, vals := range t.cols {
		cp.cols[name] = append([]any(nil), vals...)
	}
	return cp
}

// Data returns the serialized form of the table.
func (t *Table) Data() *domain.TableData {
	if t == nil {
		return nil
	}
	data := &domain.TableData{RowKeys: t.RowKeys()}
	for _, name := range t.names {
		data.Columns = append(data.Columns, domain.ColumnData{
			Name:   name,
			Values: append([]any(nil), t.cols[name]...),
		})
	}
	return data
}

// TableFromData rebuilds a table from its serialized form.
func TableFromData(data *domain.TableData) (*Table, error) {
	if data == nil {
		return nil, nil
	}
	cols := make([]Column, 0, len(data.Columns))
	for _, col := range data.Columns {
		cols = append(cols, Column{Name: col.Name, Values: col.Values})
	}
	var rowKeys []string
	if data.RowKeys != nil {
		rowKeys = data.RowKeys
	}
	return NewTable(rowKeys, cols...)
}
