package collection

import (
	"context"
	"sync"
	"sync/atomic"

	"neuroncore/pkg/domain"
)

// FailurePolicy governs how element-level failures during a bulk apply
// affect the overall result.
type FailurePolicy int

const (
	// Strict aborts the whole operation on the first element failure, with
	// no partial result.
	Strict FailurePolicy = iota
	// KeepErrors captures each failure as a *domain.ElementError sentinel
	// left in place, preserving the input key set.
	KeepErrors
	// DropErrors captures each failure, then removes the failed keys from
	// both the elements and any attached table rows.
	DropErrors
)

func (p FailurePolicy) String() string {
	switch p {
	case Strict:
		return "strict"
	case KeepErrors:
		return "keep-errors"
	case DropErrors:
		return "drop-errors"
	default:
		return "unknown"
	}
}

// ElementFunc transforms a single element.
type ElementFunc func(ctx context.Context, key string, element any) (any, error)

// VariadicFunc transforms a single element together with one aligned value
// taken per position from each auxiliary sequence.
type VariadicFunc func(ctx context.Context, key string, element any, args []any) (any, error)

// ProgressFunc observes bulk-apply progress. It may be called from multiple
// goroutines when workers are configured.
type ProgressFunc func(done, total int)

type applyConfig struct {
	spec     Spec
	policy   FailurePolicy
	workers  int
	progress ProgressFunc
}

// ApplyOption configures Apply and ApplyN.
type ApplyOption func(*applyConfig)

// WithSubset restricts the apply to the elements selected by spec. Elements
// outside the subset pass through unmodified, table rows included.
func WithSubset(spec Spec) ApplyOption {
	return func(cfg *applyConfig) { cfg.spec = spec }
}

// WithPolicy sets the failure policy. The default is Strict.
func WithPolicy(policy FailurePolicy) ApplyOption {
	return func(cfg *applyConfig) { cfg.policy = policy }
}

// WithWorkers runs element calls on up to n goroutines. Results are
// reassembled in the original key order regardless of completion order.
func WithWorkers(n int) ApplyOption {
	return func(cfg *applyConfig) { cfg.workers = n }
}

// WithProgress reports per-element completion.
func WithProgress(fn ProgressFunc) ApplyOption {
	return func(cfg *applyConfig) { cfg.progress = fn }
}

// Apply invokes fn on every element of src (or of the configured subset) and
// assembles the results into a new in-memory collection, preserving the
// source key order and the attached table alignment. The source collection
// is never mutated.
func Apply(ctx context.Context, src List, fn ElementFunc, opts ...ApplyOption) (*Collection, Report, error) {
	wrapped := func(ctx context.Context, key string, element any, _ []any) (any, error) {
		return fn(ctx, key, element)
	}
	return applyCommon(ctx, src, wrapped, nil, opts)
}

// ApplyN is the variadic form: fn receives each element plus one value taken
// per position from every sequence in seqs. Each sequence length must equal
// the selected subset size; a mismatch is a ConfigError.
func ApplyN(ctx context.Context, src List, fn VariadicFunc, seqs [][]any, opts ...ApplyOption) (*Collection, Report, error) {
	return applyCommon(ctx, src, fn, seqs, opts)
}

type applyTask struct {
	pos  int // position in the source key order
	sel  int // position within the selected subset
	key  string
	args []any
}

func applyCommon(ctx context.Context, src List, fn VariadicFunc, seqs [][]any, opts []ApplyOption) (*Collection, Report, error) {
	cfg := applyConfig{policy: Strict, workers: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	selected, report, err := Resolve(src, cfg.spec)
	if err != nil {
		return nil, report, err
	}
	for i, seq := range seqs {
		if len(seq) != len(selected) {
			return nil, report, domain.Configf("sequence %d has length %d for subset of size %d", i, len(seq), len(selected))
		}
	}

	all := src.Keys()
	selPos := make(map[string]int, len(selected))
	for i, key := range selected {
		selPos[key] = i
	}

	tasks := make([]applyTask, 0, len(selected))
	for pos, key := range all {
		sel, ok := selPos[key]
		if !ok {
			continue
		}
		args := make([]any, len(seqs))
		for j, seq := range seqs {
			args[j] = seq[sel]
		}
		tasks = append(tasks, applyTask{pos: pos, sel: sel, key: key, args: args})
	}

	results := make([]any, len(all))
	failures := make([]error, len(all))

	invoke := func(t applyTask) error {
		element, err := src.Element(t.key)
		if err == nil {
			results[t.pos], err = fn(ctx, t.key, element, t.args)
		}
		return err
	}

	if cfg.workers <= 1 || len(tasks) <= 1 {
		done := 0
		for _, t := range tasks {
			err := invoke(t)
			if err != nil {
				if cfg.policy == Strict {
					return nil, report, &domain.ElementError{Key: t.key, Err: err}
				}
				failures[t.pos] = err
			}
			done++
			if cfg.progress != nil {
				cfg.progress(done, len(tasks))
			}
		}
	} else {
		workers := cfg.workers
		if workers > len(tasks) {
			workers = len(tasks)
		}
		queue := make(chan applyTask)
		var wg sync.WaitGroup
		var done int64
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for t := range queue {
					// each task owns a distinct index; no locking needed
					if err := invoke(t); err != nil {
						failures[t.pos] = err
					}
					n := atomic.AddInt64(&done, 1)
					if cfg.progress != nil {
						cfg.progress(int(n), len(tasks))
					}
				}
			}()
		}
		for _, t := range tasks {
			queue <- t
		}
		close(queue)
		wg.Wait()
		if cfg.policy == Strict {
			for _, t := range tasks {
				if failures[t.pos] != nil {
					return nil, report, &domain.ElementError{Key: t.key, Err: failures[t.pos]}
				}
			}
		}
	}

	outKeys := make([]string, 0, len(all))
	outElements := make([]any, 0, len(all))
	failed := 0
	for pos, key := range all {
		if _, ok := selPos[key]; !ok {
			element, err := src.Element(key)
			if err != nil {
				return nil, report, err
			}
			outKeys = append(outKeys, key)
			outElements = append(outElements, element)
			continue
		}
		if failures[pos] != nil {
			failed++
			if cfg.policy == DropErrors {
				continue
			}
			outKeys = append(outKeys, key)
			outElements = append(outElements, &domain.ElementError{Key: key, Err: failures[pos]})
			continue
		}
		outKeys = append(outKeys, key)
		outElements = append(outElements, results[pos])
	}
	report.warn("apply", "element operations failed", failed)

	out, err := New(outElements, outKeys)
	if err != nil {
		return nil, report, err
	}
	if t := src.Table(); t != nil {
		sliced, err := t.Slice(outKeys)
		if err != nil {
			return nil, report, err
		}
		withTable, err := out.WithTable(sliced)
		if err != nil {
			return nil, report, err
		}
		out = withTable.(*Collection)
	}
	return out, report, nil
}
