package collection

import (
	"encoding/json"
	"fmt"
	"time"

	"neuroncore/pkg/domain"
)

// ToSnapshot serializes a collection under the given name using codec.
// Error sentinels left by a KeepErrors apply are rejected: persist either a
// clean result or drop the failures first.
func ToSnapshot(name string, src List, codec domain.Codec) (domain.Snapshot, error) {
	if name == "" {
		return domain.Snapshot{}, domain.ConfigError{Reason: "snapshot name required"}
	}
	keys := src.Keys()
	snapshot := domain.Snapshot{
		Name:     name,
		Keys:     keys,
		Elements: make(map[string]json.RawMessage, len(keys)),
	}
	for _, key := range keys {
		element, err := src.Element(key)
		if err != nil {
			return domain.Snapshot{}, err
		}
		if _, isErr := domain.AsElementError(element); isErr {
			return domain.Snapshot{}, domain.Configf("element %q is an error sentinel", key)
		}
		encoded, err := codec.Encode(element)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("encode element %q: %w", key, err)
		}
		snapshot.Elements[key] = encoded
	}
	snapshot.Table = src.Table().Data()
	now := time.Now().UTC()
	snapshot.CreatedAt = now
	snapshot.UpdatedAt = now
	return snapshot, nil
}

// FromSnapshot rebuilds an in-memory collection from a snapshot.
func FromSnapshot(s domain.Snapshot, codec domain.Codec) (*Collection, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	elements := make([]any, 0, len(s.Keys))
	for _, key := range s.Keys {
		element, err := codec.Decode(s.Elements[key])
		if err != nil {
			return nil, fmt.Errorf("decode element %q: %w", key, err)
		}
		elements = append(elements, element)
	}
	out, err := New(elements, s.Keys)
	if err != nil {
		return nil, err
	}
	table, err := TableFromData(s.Table)
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

// LazyFromSnapshot rebuilds a lazy collection whose elements decode from the
// snapshot on first access.
func LazyFromSnapshot(s domain.Snapshot, codec domain.Codec) (*LazyCollection, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	elements := s.Clone().Elements
	out, err := NewLazy(s.Keys, func(key string) (any, error) {
		raw, ok := elements[key]
		if !ok {
			return nil, domain.KeyNotFoundError{Key: key}
		}
		return codec.Decode(raw)
	})
	if err != nil {
		return nil, err
	}
	table, err := TableFromData(s.Table)
	if err != nil {
		return nil, err
	}
	if table != nil {
		withTable, err := out.WithTable(table)
		if err != nil {
			return nil, err
		}
		out = withTable.(*LazyCollection)
	}
	return out, nil
}
