package core

import (
	"context"
	"path/filepath"
	"testing"

	"neuroncore/pkg/domain"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("NEURONCORE_STORAGE_DRIVER", "memory")
	store, err := OpenPersistentStore()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.View(context.Background(), func(v domain.TransactionView) error {
		if got := v.ListCollections(); len(got) != 0 {
			t.Fatalf("fresh store has %d collections", len(got))
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestOpenPersistentStoreSQLiteDefault(t *testing.T) {
	t.Setenv("NEURONCORE_STORAGE_DRIVER", "")
	t.Setenv("NEURONCORE_SQLITE_PATH", filepath.Join(t.TempDir(), "state.db"))
	store, err := OpenPersistentStore()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store == nil {
		t.Fatalf("nil store")
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("NEURONCORE_STORAGE_DRIVER", "bogus")
	if _, err := OpenPersistentStore(); err == nil {
		t.Fatalf("unknown driver should fail")
	}
}
