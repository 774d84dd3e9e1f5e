// Package memory provides an in-memory implementation of the collection
// persistence store used for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"neuroncore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

// State captures a point-in-time clone of every stored collection snapshot,
// keyed by collection name.
type State struct {
	Collections map[string]domain.Snapshot `json:"collections"`
}

func cloneState(in map[string]domain.Snapshot) map[string]domain.Snapshot {
	out := make(map[string]domain.Snapshot, len(in))
	for name, snap := range in {
		out[name] = snap.Clone()
	}
	return out
}

// Store keeps all collection snapshots in process memory. Transactions work
// on a full clone of the state and swap it in only on success, so a failed
// mutator leaves the committed state untouched.
type Store struct {
	mu    sync.RWMutex
	state map[string]domain.Snapshot
	now   func() time.Time
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{state: make(map[string]domain.Snapshot), now: func() time.Time { return time.Now().UTC() }}
}

type transaction struct {
	state map[string]domain.Snapshot
	now   func() time.Time
}

// PutCollection validates and stores a snapshot, replacing any existing
// collection with the same name.
func (t *transaction) PutCollection(snap domain.Snapshot) (domain.Snapshot, error) {
	if err := snap.Validate(); err != nil {
		return domain.Snapshot{}, err
	}
	stored := snap.Clone()
	now := t.now()
	if existing, ok := t.state[snap.Name]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	t.state[snap.Name] = stored
	return stored.Clone(), nil
}

// UpdateCollection applies mutator to a clone of the named snapshot and
// stores the result if it still validates.
func (t *transaction) UpdateCollection(name string, mutator func(*domain.Snapshot) error) (domain.Snapshot, error) {
	existing, ok := t.state[name]
	if !ok {
		return domain.Snapshot{}, domain.KeyNotFoundError{Key: name}
	}
	working := existing.Clone()
	if err := mutator(&working); err != nil {
		return domain.Snapshot{}, err
	}
	if working.Name != name {
		return domain.Snapshot{}, domain.Configf("collection rename from %q to %q not supported", name, working.Name)
	}
	if err := working.Validate(); err != nil {
		return domain.Snapshot{}, err
	}
	working.CreatedAt = existing.CreatedAt
	working.UpdatedAt = t.now()
	t.state[name] = working
	return working.Clone(), nil
}

// DeleteCollection removes the named snapshot.
func (t *transaction) DeleteCollection(name string) error {
	if _, ok := t.state[name]; !ok {
		return domain.KeyNotFoundError{Key: name}
	}
	delete(t.state, name)
	return nil
}

// FindCollection returns a clone of the named snapshot within the transaction.
func (t *transaction) FindCollection(name string) (domain.Snapshot, bool) {
	snap, ok := t.state[name]
	if !ok {
		return domain.Snapshot{}, false
	}
	return snap.Clone(), true
}

type view struct {
	state map[string]domain.Snapshot
}

// ListCollections returns clones of all snapshots sorted by name.
func (v *view) ListCollections() []domain.Snapshot {
	return sortedSnapshots(v.state)
}

// FindCollection returns a clone of the named snapshot.
func (v *view) FindCollection(name string) (domain.Snapshot, bool) {
	snap, ok := v.state[name]
	if !ok {
		return domain.Snapshot{}, false
	}
	return snap.Clone(), true
}

func sortedSnapshots(state map[string]domain.Snapshot) []domain.Snapshot {
	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]domain.Snapshot, 0, len(names))
	for _, name := range names {
		out = append(out, state[name].Clone())
	}
	return out
}

// RunInTransaction clones the committed state, runs fn against the clone, and
// swaps the clone in when fn succeeds. Context cancellation aborts before the
// swap.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	working := cloneState(s.state)
	tx := &transaction{state: working, now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}
	s.state = working
	return nil
}

// View runs fn against a read-only clone of the committed state.
func (s *Store) View(ctx context.Context, fn func(domain.TransactionView) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	state := cloneState(s.state)
	s.mu.RUnlock()
	return fn(&view{state: state})
}

// GetCollection returns a clone of the named committed snapshot.
func (s *Store) GetCollection(name string) (domain.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.state[name]
	if !ok {
		return domain.Snapshot{}, false
	}
	return snap.Clone(), true
}

// ListCollections returns clones of all committed snapshots sorted by name.
func (s *Store) ListCollections() []domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedSnapshots(s.state)
}

// ExportState returns a deep clone of the committed state for durable
// backends to serialize.
func (s *Store) ExportState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Collections: cloneState(s.state)}
}

// ImportState replaces the committed state with a clone of the provided
// state. Invalid snapshots are rejected wholesale.
func (s *Store) ImportState(state State) error {
	for name, snap := range state.Collections {
		if snap.Name != name {
			return domain.Configf("state key %q does not match snapshot name %q", name, snap.Name)
		}
		if err := snap.Validate(); err != nil {
			return fmt.Errorf("import %s: %w", name, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if state.Collections == nil {
		s.state = make(map[string]domain.Snapshot)
	} else {
		s.state = cloneState(state.Collections)
	}
	return nil
}
