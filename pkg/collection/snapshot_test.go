package collection

import (
	"errors"
	"testing"

	"neuroncore/pkg/domain"
)

func neuronPair(t *testing.T) *Collection {
	t.Helper()
	n1 := domain.Neuron{Label: "n1", Points: []domain.Point{{X: 1}, {X: 2}}}
	n2 := domain.Neuron{Label: "n2", Points: []domain.Point{{Y: 3}}}
	c, err := New([]any{n1, n2}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	table, err := NewTable([]string{"n1", "n2"}, Column{Name: "side", Values: []any{"L", "R"}})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	attached, err := c.WithTable(table)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	return attached.(*Collection)
}

func TestSnapshotRoundTrip(t *testing.T) {
	src := neuronPair(t)
	snapshot, err := ToSnapshot("pair", src, domain.JSONCodec{})
	if err != nil {
		t.Fatalf("to snapshot: %v", err)
	}
	if err := snapshot.Validate(); err != nil {
		t.Fatalf("snapshot invalid: %v", err)
	}
	rebuilt, err := FromSnapshot(snapshot, domain.JSONCodec{})
	if err != nil {
		t.Fatalf("from snapshot: %v", err)
	}
	if rebuilt.Len() != 2 {
		t.Fatalf("len %d", rebuilt.Len())
	}
	el, err := rebuilt.Element("n1")
	if err != nil {
		t.Fatalf("element: %v", err)
	}
	n1, ok := el.(domain.Neuron)
	if !ok || len(n1.Points) != 2 || n1.Points[0].X != 1 {
		t.Fatalf("decoded neuron %#v", el)
	}
	if v, _ := rebuilt.Table().Value("n2", "side"); v.(string) != "R" {
		t.Fatalf("table value %v", v)
	}
}

func TestSnapshotRejectsErrorSentinels(t *testing.T) {
	c, err := New([]any{&domain.ElementError{Key: "n1", Err: errors.New("boom")}}, []string{"n1"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := ToSnapshot("bad", c, domain.JSONCodec{}); !domain.IsConfig(err) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestLazyFromSnapshotDecodesOnDemand(t *testing.T) {
	snapshot, err := ToSnapshot("pair", neuronPair(t), domain.JSONCodec{})
	if err != nil {
		t.Fatalf("to snapshot: %v", err)
	}
	lazy, err := LazyFromSnapshot(snapshot, domain.JSONCodec{})
	if err != nil {
		t.Fatalf("lazy from snapshot: %v", err)
	}
	if lazy.Len() != 2 {
		t.Fatalf("len %d", lazy.Len())
	}
	el, err := lazy.Element("n2")
	if err != nil {
		t.Fatalf("element: %v", err)
	}
	if n, ok := el.(domain.Neuron); !ok || n.Label != "n2" {
		t.Fatalf("decoded %#v", el)
	}
	if lazy.Table() == nil {
		t.Fatalf("table not carried through")
	}
}
