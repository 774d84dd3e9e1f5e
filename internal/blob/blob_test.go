package blob

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	fsStore, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	return map[string]Store{
		"memory": NewMemory(),
		"fs":     fsStore,
	}
}

func TestStorePutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			payload := []byte(`{"label":"n1"}`)
			info, err := store.Put(ctx, "collections/demo/n1.json", bytes.NewReader(payload), PutOptions{
				ContentType: "application/json",
				Metadata:    map[string]string{"collection": "demo"},
			})
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			if info.Size != int64(len(payload)) {
				t.Fatalf("size = %d, want %d", info.Size, len(payload))
			}
			got, rc, err := store.Get(ctx, "collections/demo/n1.json")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if !bytes.Equal(data, payload) {
				t.Fatalf("payload mismatch: %q", data)
			}
			if got.ContentType != "application/json" {
				t.Fatalf("content type = %q", got.ContentType)
			}
			if got.Metadata["collection"] != "demo" {
				t.Fatalf("metadata = %v", got.Metadata)
			}
		})
	}
}

func TestStorePutRejectsExistingKey(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Put(ctx, "k", strings.NewReader("a"), PutOptions{}); err != nil {
				t.Fatalf("first put: %v", err)
			}
			if _, err := store.Put(ctx, "k", strings.NewReader("b"), PutOptions{}); err == nil {
				t.Fatalf("expected duplicate put to fail")
			}
		})
	}
}

func TestStoreListPrefixAndOrder(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"a/2", "a/1", "b/1"} {
				if _, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{}); err != nil {
					t.Fatalf("put %s: %v", key, err)
				}
			}
			infos, err := store.List(ctx, "a/")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(infos) != 2 || infos[0].Key != "a/1" || infos[1].Key != "a/2" {
				t.Fatalf("list = %+v", infos)
			}
		})
	}
}

func TestStoreDeleteReportsExistence(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Put(ctx, "k", strings.NewReader("x"), PutOptions{}); err != nil {
				t.Fatalf("put: %v", err)
			}
			ok, err := store.Delete(ctx, "k")
			if err != nil || !ok {
				t.Fatalf("delete existing = %v, %v", ok, err)
			}
			ok, err = store.Delete(ctx, "k")
			if err != nil || ok {
				t.Fatalf("delete missing = %v, %v", ok, err)
			}
			if _, err := store.Head(ctx, "k"); err == nil {
				t.Fatalf("head after delete should fail")
			}
		})
	}
}

func TestStorePresignGetOnly(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Put(ctx, "k", strings.NewReader("x"), PutOptions{}); err != nil {
				t.Fatalf("put: %v", err)
			}
			url, err := store.PresignURL(ctx, "k", SignedURLOptions{Method: "GET"})
			if err != nil || url == "" {
				t.Fatalf("presign get = %q, %v", url, err)
			}
			if _, err := store.PresignURL(ctx, "k", SignedURLOptions{Method: "PUT"}); err != ErrUnsupported {
				t.Fatalf("presign put err = %v, want ErrUnsupported", err)
			}
		})
	}
}

func TestFilesystemRejectsTraversal(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	for _, key := range []string{"", "../escape", "/abs", "a/../../b"} {
		if _, err := store.Put(context.Background(), key, strings.NewReader("x"), PutOptions{}); err == nil {
			t.Fatalf("key %q should be rejected", key)
		}
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	t.Setenv("NEURONCORE_BLOB_DRIVER", "memory")
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("driver = %s", store.Driver())
	}

	t.Setenv("NEURONCORE_BLOB_DRIVER", "fs")
	t.Setenv("NEURONCORE_BLOB_FS_ROOT", t.TempDir())
	store, err = Open(context.Background())
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("driver = %s", store.Driver())
	}

	t.Setenv("NEURONCORE_BLOB_DRIVER", "bogus")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("unknown driver should fail")
	}
}
