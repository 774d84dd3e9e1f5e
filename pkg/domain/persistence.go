package domain

import "context"

// Transaction exposes the snapshot operations a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	PutCollection(Snapshot) (Snapshot, error)
	UpdateCollection(name string, mutator func(*Snapshot) error) (Snapshot, error)
	DeleteCollection(name string) error
	FindCollection(name string) (Snapshot, bool)
}

// TransactionView provides read-only access to committed or in-flight state.
type TransactionView interface {
	ListCollections() []Snapshot
	FindCollection(name string) (Snapshot, bool)
}

// PersistentStore is a minimal abstraction over durable backends. Writes go
// through RunInTransaction; every successful transaction leaves all stored
// snapshots valid per Snapshot.Validate.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) error
	View(ctx context.Context, fn func(TransactionView) error) error
	GetCollection(name string) (Snapshot, bool)
	ListCollections() []Snapshot
}
