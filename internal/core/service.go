// Package core exposes the transactional collection service tying together
// the collection algebra, the codec, and a persistent store.
package core

import (
	"context"
	"sort"
	"time"

	"neuroncore/pkg/collection"
	"neuroncore/pkg/domain"
)

// CollectionSummary describes a stored collection without its elements.
type CollectionSummary struct {
	Name      string    `json:"name"`
	Elements  int       `json:"elements"`
	HasTable  bool      `json:"has_table"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service provides named, durable collections on top of a PersistentStore.
// All mutating operations run inside a store transaction.
type Service struct {
	store   domain.PersistentStore
	codec   domain.Codec
	metrics MetricsRecorder
	tracer  Tracer
}

// ServiceOption customizes service construction.
type ServiceOption func(*Service)

// WithMetrics installs a metrics recorder.
func WithMetrics(m MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(t Tracer) ServiceOption {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithCodec overrides the element codec (JSONCodec by default).
func WithCodec(c domain.Codec) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.codec = c
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		codec:   domain.JSONCodec{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore { return s.store }

// Codec returns the element codec in use.
func (s *Service) Codec() domain.Codec { return s.codec }

func (s *Service) instrument(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, operation)
	err := fn(ctx)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	return err
}

// SaveCollection encodes src and stores it under name, replacing any
// existing collection with that name.
func (s *Service) SaveCollection(ctx context.Context, name string, src collection.List) (domain.Snapshot, error) {
	var stored domain.Snapshot
	err := s.instrument(ctx, "save_collection", func(ctx context.Context) error {
		snap, err := collection.ToSnapshot(name, src, s.codec)
		if err != nil {
			return err
		}
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			stored, err = tx.PutCollection(snap)
			return err
		})
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	return stored, nil
}

// LoadCollection materializes the named collection, decoding every element.
func (s *Service) LoadCollection(ctx context.Context, name string) (*collection.Collection, error) {
	var loaded *collection.Collection
	err := s.instrument(ctx, "load_collection", func(context.Context) error {
		snap, ok := s.store.GetCollection(name)
		if !ok {
			return domain.KeyNotFoundError{Key: name}
		}
		var err error
		loaded, err = collection.FromSnapshot(snap, s.codec)
		return err
	})
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

// LoadLazyCollection returns the named collection with on-demand element
// decoding. Keys and the attached table are available immediately.
func (s *Service) LoadLazyCollection(ctx context.Context, name string) (*collection.LazyCollection, error) {
	var loaded *collection.LazyCollection
	err := s.instrument(ctx, "load_lazy_collection", func(context.Context) error {
		snap, ok := s.store.GetCollection(name)
		if !ok {
			return domain.KeyNotFoundError{Key: name}
		}
		var err error
		loaded, err = collection.LazyFromSnapshot(snap, s.codec)
		return err
	})
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

// DeleteCollection removes the named collection.
func (s *Service) DeleteCollection(ctx context.Context, name string) error {
	return s.instrument(ctx, "delete_collection", func(ctx context.Context) error {
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			return tx.DeleteCollection(name)
		})
	})
}

// ListCollections summarizes all stored collections sorted by name.
func (s *Service) ListCollections(ctx context.Context) ([]CollectionSummary, error) {
	var summaries []CollectionSummary
	err := s.instrument(ctx, "list_collections", func(ctx context.Context) error {
		return s.store.View(ctx, func(v domain.TransactionView) error {
			for _, snap := range v.ListCollections() {
				summaries = append(summaries, CollectionSummary{
					Name:      snap.Name,
					Elements:  len(snap.Keys),
					HasTable:  snap.Table != nil,
					CreatedAt: snap.CreatedAt,
					UpdatedAt: snap.UpdatedAt,
				})
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries, nil
}

// ApplyTransform loads the named collection, applies fn element-wise, and
// stores the result back under the same name within one transaction. The
// merged report from subsetting and application is returned.
func (s *Service) ApplyTransform(ctx context.Context, name string, fn collection.ElementFunc, opts ...collection.ApplyOption) (collection.Report, error) {
	var report collection.Report
	err := s.instrument(ctx, "apply_transform", func(ctx context.Context) error {
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			snap, ok := tx.FindCollection(name)
			if !ok {
				return domain.KeyNotFoundError{Key: name}
			}
			src, err := collection.FromSnapshot(snap, s.codec)
			if err != nil {
				return err
			}
			out, rep, err := collection.Apply(ctx, src, fn, opts...)
			if err != nil {
				return err
			}
			report = rep
			next, err := collection.ToSnapshot(name, out, s.codec)
			if err != nil {
				return err
			}
			_, err = tx.PutCollection(next)
			return err
		})
	})
	if err != nil {
		return collection.Report{}, err
	}
	return report, nil
}

// SubsetCollection stores a subset of the named source collection under
// target, resolving spec (and any per-element filter) against the source.
func (s *Service) SubsetCollection(ctx context.Context, source, target string, spec collection.Spec, opts ...collection.SubsetOption) (collection.Report, error) {
	var report collection.Report
	err := s.instrument(ctx, "subset_collection", func(ctx context.Context) error {
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			snap, ok := tx.FindCollection(source)
			if !ok {
				return domain.KeyNotFoundError{Key: source}
			}
			src, err := collection.FromSnapshot(snap, s.codec)
			if err != nil {
				return err
			}
			sub, rep, err := collection.Subset(ctx, src, spec, opts...)
			if err != nil {
				return err
			}
			report = rep
			next, err := collection.ToSnapshot(target, sub, s.codec)
			if err != nil {
				return err
			}
			_, err = tx.PutCollection(next)
			return err
		})
	})
	if err != nil {
		return collection.Report{}, err
	}
	return report, nil
}

// MergeCollections combines the named source collections into one stored
// under target. Key collisions across sources fail the transaction.
func (s *Service) MergeCollections(ctx context.Context, target string, sources ...string) error {
	return s.instrument(ctx, "merge_collections", func(ctx context.Context) error {
		return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			lists := make([]collection.List, 0, len(sources))
			for _, name := range sources {
				snap, ok := tx.FindCollection(name)
				if !ok {
					return domain.KeyNotFoundError{Key: name}
				}
				src, err := collection.FromSnapshot(snap, s.codec)
				if err != nil {
					return err
				}
				lists = append(lists, src)
			}
			merged, err := collection.Combine(lists...)
			if err != nil {
				return err
			}
			snap, err := collection.ToSnapshot(target, merged, s.codec)
			if err != nil {
				return err
			}
			_, err = tx.PutCollection(snap)
			return err
		})
	})
}
