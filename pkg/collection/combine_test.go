package collection

import (
	"testing"

	"neuroncore/pkg/domain"
)

func TestCombineConcatenatesInInputOrder(t *testing.T) {
	a := mustCollection(t, "a", 1, "b", 2)
	b := mustCollection(t, "c", 3)
	merged, err := Combine(a, b)
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	keys := merged.Keys()
	want := []string{"a", "b", "c"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys %v, want %v", keys, want)
		}
	}
	el, _ := merged.Element("c")
	if el.(int) != 3 {
		t.Fatalf("element c = %v", el)
	}
}

func TestCombineRejectsDuplicateKeys(t *testing.T) {
	a := mustCollection(t, "n1", 1)
	b := mustCollection(t, "n1", 2)
	if _, err := Combine(a, b); !domain.IsConfig(err) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestCombineOuterJoinsTables(t *testing.T) {
	a := mustAttach(t, mustCollection(t, "a", 1),
		idTable(t, []string{"a"}, 10))
	bTable, err := NewTable([]string{"b"}, Column{Name: "side", Values: []any{"L"}})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	b := mustAttach(t, mustCollection(t, "b", 2), bTable)

	merged, err := Combine(a, b)
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	table := merged.Table()
	if table == nil {
		t.Fatalf("no table on combined collection")
	}
	cols := table.Columns()
	if len(cols) != 2 || cols[0] != "id" || cols[1] != "side" {
		t.Fatalf("columns %v", cols)
	}
	// column present in only one input is padded with the missing sentinel
	if v, _ := table.Value("b", "id"); v != nil {
		t.Fatalf("b/id = %v, want nil", v)
	}
	if v, _ := table.Value("a", "side"); v != nil {
		t.Fatalf("a/side = %v, want nil", v)
	}
	if v, _ := table.Value("a", "id"); v.(int) != 10 {
		t.Fatalf("a/id = %v", v)
	}
	if v, _ := table.Value("b", "side"); v.(string) != "L" {
		t.Fatalf("b/side = %v", v)
	}
}

func TestCombineKeepsRowsForTablelessInputs(t *testing.T) {
	a := mustAttach(t, mustCollection(t, "a", 1), idTable(t, []string{"a"}, 10))
	b := mustCollection(t, "b", 2) // no table
	merged, err := Combine(a, b)
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	rows := merged.Table().RowKeys()
	if len(rows) != 2 || rows[0] != "a" || rows[1] != "b" {
		t.Fatalf("rows %v: tableless input must keep its row", rows)
	}
	if v, _ := merged.Table().Value("b", "id"); v != nil {
		t.Fatalf("b/id = %v, want nil padding", v)
	}
}

func TestCombineWithoutTablesYieldsNoTable(t *testing.T) {
	merged, err := Combine(mustCollection(t, "a", 1), mustCollection(t, "b", 2))
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if merged.Table() != nil {
		t.Fatalf("unexpected table on combined collection")
	}
}

func TestCombineIsAssociativeOnKeysAndElements(t *testing.T) {
	a := mustCollection(t, "a", 1)
	b := mustCollection(t, "b", 2)
	c := mustCollection(t, "c", 3)

	ab, err := Combine(a, b)
	if err != nil {
		t.Fatalf("combine ab: %v", err)
	}
	left, err := Combine(ab, c)
	if err != nil {
		t.Fatalf("combine (ab)c: %v", err)
	}
	bc, err := Combine(b, c)
	if err != nil {
		t.Fatalf("combine bc: %v", err)
	}
	right, err := Combine(a, bc)
	if err != nil {
		t.Fatalf("combine a(bc): %v", err)
	}

	lk, rk := left.Keys(), right.Keys()
	if len(lk) != len(rk) {
		t.Fatalf("lengths differ: %v vs %v", lk, rk)
	}
	for i := range lk {
		if lk[i] != rk[i] {
			t.Fatalf("key order differs: %v vs %v", lk, rk)
		}
		le, _ := left.Element(lk[i])
		re, _ := right.Element(rk[i])
		if le != re {
			t.Fatalf("element %q differs: %v vs %v", lk[i], le, re)
		}
	}
}

func TestSliceComplementCombineRoundTrip(t *testing.T) {
	c := mustCollection(t, "a", 1, "b", 2, "c", 3, "d", 4)
	half, err := c.Slice([]string{"b", "d"})
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	rest, err := c.Slice([]string{"a", "c"})
	if err != nil {
		t.Fatalf("slice complement: %v", err)
	}
	merged, err := Combine(half, rest)
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if merged.Len() != c.Len() {
		t.Fatalf("round trip length %d, want %d", merged.Len(), c.Len())
	}
	for _, key := range c.Keys() {
		want, _ := c.Element(key)
		got, err := merged.Element(key)
		if err != nil || got != want {
			t.Fatalf("round trip element %q = %v, %v (want %v)", key, got, err, want)
		}
	}
}
