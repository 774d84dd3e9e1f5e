package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"neuroncore/pkg/domain"
)

func snapshotFixture(name string, keys ...string) domain.Snapshot {
	elements := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		elements[key] = json.RawMessage(`{"kind":"neuron","data":{"label":"` + key + `"}}`)
	}
	return domain.Snapshot{Name: name, Keys: keys, Elements: elements}
}

func TestPutGetRoundTrip(t *testing.T) {
	store := NewStore()
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.PutCollection(snapshotFixture("demo", "a", "b"))
		return err
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	snap, ok := store.GetCollection("demo")
	if !ok {
		t.Fatalf("collection missing after commit")
	}
	if len(snap.Keys) != 2 || snap.Keys[0] != "a" || snap.Keys[1] != "b" {
		t.Fatalf("keys = %v", snap.Keys)
	}
	if snap.CreatedAt.IsZero() || snap.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set: %+v", snap)
	}
}

func TestPutRejectsInvalidSnapshot(t *testing.T) {
	store := NewStore()
	bad := snapshotFixture("demo", "a", "b")
	delete(bad.Elements, "b")
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.PutCollection(bad)
		return err
	})
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	if _, ok := store.GetCollection("demo"); ok {
		t.Fatalf("invalid snapshot must not be stored")
	}
}

func TestFailedTransactionLeavesStateUntouched(t *testing.T) {
	store := NewStore()
	if err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.PutCollection(snapshotFixture("demo", "a"))
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	boom := errors.New("boom")
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if err := tx.DeleteCollection("demo"); err != nil {
			return err
		}
		if _, err := tx.PutCollection(snapshotFixture("other", "x")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := store.GetCollection("demo"); !ok {
		t.Fatalf("rollback lost original collection")
	}
	if _, ok := store.GetCollection("other"); ok {
		t.Fatalf("rollback kept uncommitted collection")
	}
}

func TestUpdateCollection(t *testing.T) {
	store := NewStore()
	if err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.PutCollection(snapshotFixture("demo", "a"))
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateCollection("demo", func(snap *domain.Snapshot) error {
			snap.Keys = append(snap.Keys, "b")
			snap.Elements["b"] = json.RawMessage(`{"kind":"neuron","data":{"label":"b"}}`)
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	snap, _ := store.GetCollection("demo")
	if len(snap.Keys) != 2 {
		t.Fatalf("keys = %v", snap.Keys)
	}

	err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateCollection("missing", func(*domain.Snapshot) error { return nil })
		return err
	})
	var notFound domain.KeyNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want KeyNotFoundError", err)
	}
}

func TestUpdateRejectsRename(t *testing.T) {
	store := NewStore()
	if err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.PutCollection(snapshotFixture("demo", "a"))
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateCollection("demo", func(snap *domain.Snapshot) error {
			snap.Name = "renamed"
			return nil
		})
		return err
	})
	if !domain.IsConfig(err) {
		t.Fatalf("err = %v, want config error", err)
	}
}

func TestViewAndListOrdering(t *testing.T) {
	store := NewStore()
	if err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		for _, name := range []string{"zeta", "alpha", "mid"} {
			if _, err := tx.PutCollection(snapshotFixture(name, "k")); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := store.View(context.Background(), func(v domain.TransactionView) error {
		snaps := v.ListCollections()
		if len(snaps) != 3 || snaps[0].Name != "alpha" || snaps[1].Name != "mid" || snaps[2].Name != "zeta" {
			t.Fatalf("order = %+v", snaps)
		}
		if _, ok := v.FindCollection("alpha"); !ok {
			t.Fatalf("find alpha failed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestSnapshotsAreIsolatedCopies(t *testing.T) {
	store := NewStore()
	if err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.PutCollection(snapshotFixture("demo", "a"))
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	snap, _ := store.GetCollection("demo")
	snap.Keys[0] = "mutated"
	snap.Elements["a"] = json.RawMessage(`null`)
	again, _ := store.GetCollection("demo")
	if again.Keys[0] != "a" {
		t.Fatalf("stored keys mutated via returned copy")
	}
	if string(again.Elements["a"]) == "null" {
		t.Fatalf("stored elements mutated via returned copy")
	}
}

func TestExportImportState(t *testing.T) {
	store := NewStore()
	if err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.PutCollection(snapshotFixture("demo", "a"))
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	state := store.ExportState()

	restored := NewStore()
	if err := restored.ImportState(state); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, ok := restored.GetCollection("demo"); !ok {
		t.Fatalf("imported state missing collection")
	}

	bad := State{Collections: map[string]domain.Snapshot{"wrong": snapshotFixture("demo", "a")}}
	if err := restored.ImportState(bad); !domain.IsConfig(err) {
		t.Fatalf("err = %v, want config error", err)
	}
}

func TestRunInTransactionHonorsContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.PutCollection(snapshotFixture("demo", "a")); err != nil {
			return err
		}
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, ok := store.GetCollection("demo"); ok {
		t.Fatalf("cancelled transaction must not commit")
	}
}
