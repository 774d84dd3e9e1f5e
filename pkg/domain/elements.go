// Package domain defines the element contracts, error taxonomy, and
// serialized snapshot forms shared by neuroncore's collection engine and its
// persistence backends.
package domain

// Named is the single capability a collection may require of an element: an
// intrinsic name used to derive its key when the caller supplies none.
// Elements are otherwise opaque to the collection layer.
type Named interface {
	Name() string
}

// Point is a position in three-dimensional space, in the units of the
// originating reconstruction.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Neuron is a skeletonized reconstruction: an ordered sequence of sample
// points with per-sample radii and parent links forming a tree. It is one of
// the two built-in element kinds; the collection engine imposes nothing
// beyond Named on it.
type Neuron struct {
	Label   string    `json:"label"`
	Points  []Point   `json:"points"`
	Radii   []float64 `json:"radii,omitempty"`
	Parents []int     `json:"parents,omitempty"`
	Soma    *int      `json:"soma,omitempty"`
}

// Name returns the neuron's intrinsic label.
func (n Neuron) Name() string { return n.Label }

// Clone returns a deep copy of the neuron.
func (n Neuron) Clone() Neuron {
	cp := n
	cp.Points = append([]Point(nil), n.Points...)
	cp.Radii = append([]float64(nil), n.Radii...)
	cp.Parents = append([]int(nil), n.Parents...)
	if n.Soma != nil {
		soma := *n.Soma
		cp.Soma = &soma
	}
	return cp
}

// Dotprops is a point-cloud representation: positions with unit tangent
// vectors estimated from the K nearest neighbours.
type Dotprops struct {
	Label   string  `json:"label"`
	Points  []Point `json:"points"`
	Vectors []Point `json:"vectors,omitempty"`
	K       int     `json:"k,omitempty"`
}

// Name returns the dotprops' intrinsic label.
func (d Dotprops) Name() string { return d.Label }

// Clone returns a deep copy of the dotprops.
func (d Dotprops) Clone() Dotprops {
	cp := d
	cp.Points = append([]Point(nil), d.Points...)
	cp.Vectors = append([]Point(nil), d.Vectors...)
	return cp
}
