package collection

import "fmt"

// Warning is a non-fatal condition surfaced to the caller without
// interrupting the operation: keys missing from a string subset
// specification, filter failures suppressed, elements failed under a lenient
// apply policy.
type Warning struct {
	Op      string
	Message string
	Count   int
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s (%d)", w.Op, w.Message, w.Count)
}

// Report aggregates the warnings produced by an operation. Stages merge
// their reports so a combined subset-then-filter call surfaces everything.
type Report struct {
	Warnings []Warning
}

// Empty reports whether no warnings were recorded.
func (r Report) Empty() bool { return len(r.Warnings) == 0 }

// Merge appends the warnings of other.
func (r *Report) Merge(other Report) {
	r.Warnings = append(r.Warnings, other.Warnings...)
}

func (r *Report) warn(op, message string, count int) {
	if count <= 0 {
		return
	}
	r.Warnings = append(r.Warnings, Warning{Op: op, Message: message, Count: count})
}
