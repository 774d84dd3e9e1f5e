package domain

import (
	"encoding/json"
	"time"
)

// ColumnData is the serialized form of one metadata table column.
type ColumnData struct {
	Name   string `json:"name"`
	Values []any  `json:"values"`
}

// TableData is the serialized form of a metadata table. RowKeys are stored
// explicitly even though they always equal the owning snapshot's Keys, so a
// decoded table can be re-validated independently.
type TableData struct {
	RowKeys []string     `json:"row_keys,omitempty"`
	Columns []ColumnData `json:"columns,omitempty"`
}

// Clone returns a deep copy of the table data.
func (t *TableData) Clone() *TableData {
	if t == nil {
		return nil
	}
	cp := TableData{RowKeys: append([]string(nil), t.RowKeys...)}
	for _, col := range t.Columns {
		cp.Columns = append(cp.Columns, ColumnData{
			Name:   col.Name,
			Values: append([]any(nil), col.Values...),
		})
	}
	return &cp
}

// Snapshot is the serialized form of a named collection: ordered keys, one
// encoded element per key, and the attached table when present. It is the
// unit persisted by every store backend.
type Snapshot struct {
	Name      string                     `json:"name"`
	Keys      []string                   `json:"keys"`
	Elements  map[string]json.RawMessage `json:"elements"`
	Table     *TableData                 `json:"table,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	cp := s
	cp.Keys = append([]string(nil), s.Keys...)
	if s.Elements != nil {
		cp.Elements = make(map[string]json.RawMessage, len(s.Elements))
		for k, v := range s.Elements {
			cp.Elements[k] = append(json.RawMessage(nil), v...)
		}
	}
	cp.Table = s.Table.Clone()
	return cp
}

// Validate checks the structural invariants every store must hold on write:
// a non-empty name, unique non-empty keys, exactly one element per key, and
// a table (when present) whose row keys equal the snapshot keys in order.
func (s Snapshot) Validate() error {
	if s.Name == "" {
		return ConfigError{Reason: "snapshot name required"}
	}
	seen := make(map[string]struct{}, len(s.Keys))
	for _, key := range s.Keys {
		if key == "" {
			return ConfigError{Reason: "snapshot contains an empty key"}
		}
		if _, dup := seen[key]; dup {
			return Configf("snapshot contains duplicate key %q", key)
		}
		seen[key] = struct{}{}
		if _, ok := s.Elements[key]; !ok {
			return Configf("snapshot missing element for key %q", key)
		}
	}
	if len(s.Elements) != len(s.Keys) {
		return Configf("snapshot has %d elements for %d keys", len(s.Elements), len(s.Keys))
	}
	if s.Table != nil {
		if len(s.Table.RowKeys) != len(s.Keys) {
			return Configf("snapshot table has %d rows for %d keys", len(s.Table.RowKeys), len(s.Keys))
		}
		for i, key := range s.Table.RowKeys {
			if key != s.Keys[i] {
				return Configf("snapshot table row %d keyed %q, want %q", i, key, s.Keys[i])
			}
		}
		for _, col := range s.Table.Columns {
			if len(col.Values) != len(s.Table.RowKeys) {
				return Configf("snapshot table column %q has %d values for %d rows",
					col.Name, len(col.Values), len(s.Table.RowKeys))
			}
		}
	}
	return nil
}
