package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"neuroncore/internal/infra/persistence/memory"
	"neuroncore/pkg/collection"
	"neuroncore/pkg/domain"
)

func neuronFixture(label string, x float64) domain.Neuron {
	return domain.Neuron{Label: label, Points: []domain.Point{{X: x, Y: 1, Z: 2}}, Radii: []float64{0.5}}
}

func collectionFixture(t *testing.T, labels ...string) *collection.Collection {
	t.Helper()
	elements := make([]any, 0, len(labels))
	for i, label := range labels {
		elements = append(elements, neuronFixture(label, float64(i)))
	}
	col, err := collection.New(elements, nil)
	if err != nil {
		t.Fatalf("new collection: %v", err)
	}
	return col
}

func TestSaveLoadRoundTrip(t *testing.T) {
	svc := NewService(memory.NewStore())
	ctx := context.Background()
	if _, err := svc.SaveCollection(ctx, "demo", collectionFixture(t, "a", "b")); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := svc.LoadCollection(ctx, "demo")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("len = %d", loaded.Len())
	}
	elem, err := loaded.Element("a")
	if err != nil {
		t.Fatalf("element: %v", err)
	}
	neuron, ok := elem.(domain.Neuron)
	if !ok || neuron.Label != "a" {
		t.Fatalf("element = %#v", elem)
	}
}

func TestLoadMissingCollection(t *testing.T) {
	svc := NewService(memory.NewStore())
	_, err := svc.LoadCollection(context.Background(), "missing")
	var notFound domain.KeyNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want KeyNotFoundError", err)
	}
}

func TestLoadLazyCollection(t *testing.T) {
	svc := NewService(memory.NewStore())
	ctx := context.Background()
	if _, err := svc.SaveCollection(ctx, "demo", collectionFixture(t, "a", "b", "c")); err != nil {
		t.Fatalf("save: %v", err)
	}
	lazy, err := svc.LoadLazyCollection(ctx, "demo")
	if err != nil {
		t.Fatalf("load lazy: %v", err)
	}
	keys := lazy.Keys()
	if len(keys) != 3 || keys[0] != "a" {
		t.Fatalf("keys = %v", keys)
	}
	elem, err := lazy.Element("b")
	if err != nil {
		t.Fatalf("element: %v", err)
	}
	if neuron := elem.(domain.Neuron); neuron.Label != "b" {
		t.Fatalf("element = %#v", elem)
	}
}

func TestApplyTransformPersistsResult(t *testing.T) {
	svc := NewService(memory.NewStore())
	ctx := context.Background()
	if _, err := svc.SaveCollection(ctx, "demo", collectionFixture(t, "a", "b")); err != nil {
		t.Fatalf("save: %v", err)
	}
	report, err := svc.ApplyTransform(ctx, "demo", func(_ context.Context, _ string, element any) (any, error) {
		neuron := element.(domain.Neuron)
		neuron.Points[0].X += 10
		return neuron, nil
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !report.Empty() {
		t.Fatalf("report = %+v", report)
	}
	loaded, err := svc.LoadCollection(ctx, "demo")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	elem, _ := loaded.Element("a")
	if got := elem.(domain.Neuron).Points[0].X; got != 10 {
		t.Fatalf("x = %v", got)
	}
}

func TestApplyTransformStrictFailureRollsBack(t *testing.T) {
	svc := NewService(memory.NewStore())
	ctx := context.Background()
	if _, err := svc.SaveCollection(ctx, "demo", collectionFixture(t, "a", "b")); err != nil {
		t.Fatalf("save: %v", err)
	}
	boom := errors.New("boom")
	_, err := svc.ApplyTransform(ctx, "demo", func(_ context.Context, key string, element any) (any, error) {
		if key == "b" {
			return nil, boom
		}
		neuron := element.(domain.Neuron)
		neuron.Points[0].X = 99
		return neuron, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	loaded, err := svc.LoadCollection(ctx, "demo")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	elem, _ := loaded.Element("a")
	if got := elem.(domain.Neuron).Points[0].X; got == 99 {
		t.Fatalf("failed transform leaked partial state")
	}
}

func TestSubsetCollection(t *testing.T) {
	svc := NewService(memory.NewStore())
	ctx := context.Background()
	if _, err := svc.SaveCollection(ctx, "demo", collectionFixture(t, "a", "b", "c")); err != nil {
		t.Fatalf("save: %v", err)
	}
	report, err := svc.SubsetCollection(ctx, "demo", "pair", collection.Keys{"a", "c", "ghost"})
	if err != nil {
		t.Fatalf("subset: %v", err)
	}
	if len(report.Warnings) != 1 || report.Warnings[0].Count != 1 {
		t.Fatalf("report = %+v", report)
	}
	loaded, err := svc.LoadCollection(ctx, "pair")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	keys := loaded.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "c" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestMergeCollections(t *testing.T) {
	svc := NewService(memory.NewStore())
	ctx := context.Background()
	if _, err := svc.SaveCollection(ctx, "left", collectionFixture(t, "a", "b")); err != nil {
		t.Fatalf("save left: %v", err)
	}
	if _, err := svc.SaveCollection(ctx, "right", collectionFixture(t, "c")); err != nil {
		t.Fatalf("save right: %v", err)
	}
	if err := svc.MergeCollections(ctx, "merged", "left", "right"); err != nil {
		t.Fatalf("merge: %v", err)
	}
	loaded, err := svc.LoadCollection(ctx, "merged")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Len() != 3 {
		t.Fatalf("len = %d", loaded.Len())
	}

	if err := svc.MergeCollections(ctx, "clash", "left", "left"); !domain.IsConfig(err) {
		t.Fatalf("err = %v, want config error", err)
	}
	if _, err := svc.LoadCollection(ctx, "clash"); err == nil {
		t.Fatalf("failed merge must not persist a collection")
	}
}

func TestListCollections(t *testing.T) {
	svc := NewService(memory.NewStore())
	ctx := context.Background()
	for i, name := range []string{"zeta", "alpha"} {
		if _, err := svc.SaveCollection(ctx, name, collectionFixture(t, fmt.Sprintf("n%d", i))); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}
	summaries, err := svc.ListCollections(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 2 || summaries[0].Name != "alpha" || summaries[1].Name != "zeta" {
		t.Fatalf("summaries = %+v", summaries)
	}
	if summaries[0].Elements != 1 || summaries[0].HasTable {
		t.Fatalf("summary = %+v", summaries[0])
	}
}

func TestDeleteCollection(t *testing.T) {
	svc := NewService(memory.NewStore())
	ctx := context.Background()
	if _, err := svc.SaveCollection(ctx, "demo", collectionFixture(t, "a")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := svc.DeleteCollection(ctx, "demo"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.LoadCollection(ctx, "demo"); err == nil {
		t.Fatalf("deleted collection still loads")
	}
	var notFound domain.KeyNotFoundError
	if err := svc.DeleteCollection(ctx, "demo"); !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want KeyNotFoundError", err)
	}
}

func TestSaveCollectionPreservesTable(t *testing.T) {
	svc := NewService(memory.NewStore())
	ctx := context.Background()
	col := collectionFixture(t, "a", "b")
	table, err := collection.NewTable(col.Keys(), collection.Column{Name: "score", Values: []any{1.5, 2.5}})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	withTable, err := col.WithTable(table)
	if err != nil {
		t.Fatalf("with table: %v", err)
	}
	if _, err := svc.SaveCollection(ctx, "demo", withTable); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := svc.LoadCollection(ctx, "demo")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := loaded.Table()
	if got == nil {
		t.Fatalf("table lost across persistence")
	}
	val, err := got.Value("b", "score")
	if err != nil || val != 2.5 {
		t.Fatalf("value = %v, %v", val, err)
	}
}
