// Package adjacency builds the constant seed matrices used by the
// cross-domain graph convolution models.
//
// The joint graph has 12 nodes: the source domain occupies rows 0..5 and
// the target domain rows 6..11. Inside each domain node 0 is the global
// (whole image) node and nodes 1..5 are local regions.
//
// Matrices are built host-side as gonum dense matrices and converted to
// tensors by the caller.
package adjacency

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

const (
	// DomainNodes is the number of nodes in one domain (1 global + 5 local).
	DomainNodes = 6

	// JointNodes is the number of nodes in the source+target graph.
	JointNodes = 2 * DomainNodes
)

// Links holds the five structural link strengths.
type Links struct {
	Link1 float64 // Global-local, same domain.
	Link2 float64 // Local-local, same domain.
	Link3 float64 // Corresponding location, cross domain.
	Link4 float64 // Global-local, cross domain.
	Link5 float64 // Local-local, cross domain.
}

// DefaultLinks returns the link strengths used by the reference models.
func DefaultLinks() Links {
	return Links{
		Link1: 0.8,
		Link2: 0.5,
		Link3: 0.9,
		Link4: 0.4,
		Link5: 0.25,
	}
}

// fillBlock sets m[r0:r1, c0:c1] = v.
func fillBlock(m *mat.Dense, r0, r1, c0, c1 int, v float64) {
	for i := r0; i < r1; i++ {
		for j := c0; j < c1; j++ {
			m.Set(i, j, v)
		}
	}
}

// setCorresponding links every node to the node at the same position in
// the other domain.
func setCorresponding(m *mat.Dense, v float64) {
	for i := 0; i < JointNodes; i++ {
		m.Set(i, (i+DomainNodes)%JointNodes, v)
	}
}

func setDiagonal(m *mat.Dense, v float64) {
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		m.Set(i, i, v)
	}
}

// Joint returns the 12×12 seed used by the single-graph GCN.
//
// Later categories overwrite earlier ones where they overlap: link4
// replaces link1 on the global rows/columns of the other domain, link3
// replaces the global-global cross entries, and self loops win last.
func Joint(l Links) *mat.Dense {
	const n, h = JointNodes, DomainNodes
	m := mat.NewDense(n, n, nil)

	// link1
	fillBlock(m, 0, 1, 0, h, l.Link1)
	fillBlock(m, h, h+1, h, n, l.Link1)
	fillBlock(m, 0, h, 0, 1, l.Link1)
	fillBlock(m, h, n, h, h+1, l.Link1)

	// link2
	fillBlock(m, 1, h, 1, h, l.Link2)
	fillBlock(m, h+1, n, h+1, n, l.Link2)

	// link4
	fillBlock(m, 0, 1, h, n, l.Link4)
	fillBlock(m, h, h+1, 0, h, l.Link4)
	fillBlock(m, 0, h, h, h+1, l.Link4)
	fillBlock(m, h, n, 0, 1, l.Link4)

	// link5
	fillBlock(m, 1, h, h+1, n, l.Link5)
	fillBlock(m, h+1, n, 1, h, l.Link5)

	setCorresponding(m, l.Link3)
	setDiagonal(m, 1)
	return m
}

// Intra returns the 6×6 within-domain seed shared by source and target.
func Intra(l Links) *mat.Dense {
	const h = DomainNodes
	m := mat.NewDense(h, h, nil)
	fillBlock(m, 0, 1, 1, h, l.Link1)
	fillBlock(m, 1, h, 0, 1, l.Link1)
	fillBlock(m, 1, h, 1, h, l.Link2)
	setDiagonal(m, 1)
	return m
}

// Inter returns the 12×12 cross-domain seed. Same-domain blocks stay zero
// apart from the diagonal.
func Inter(l Links) *mat.Dense {
	const n, h = JointNodes, DomainNodes
	m := mat.NewDense(n, n, nil)

	// link4
	fillBlock(m, 0, 1, h+1, n, l.Link4)
	fillBlock(m, 1, h, h, h+1, l.Link4)
	fillBlock(m, h, h+1, 1, h, l.Link4)
	fillBlock(m, h+1, n, 0, 1, l.Link4)

	// link5
	fillBlock(m, 1, h, h+1, n, l.Link5)
	fillBlock(m, h+1, n, 1, h, l.Link5)

	setCorresponding(m, l.Link3)
	setDiagonal(m, 1)
	return m
}

// InterMask keeps the cross-domain blocks and the diagonal.
func InterMask() *mat.Dense {
	const n, h = JointNodes, DomainNodes
	m := Ones(n)
	fillBlock(m, 0, h, 0, h, 0)
	fillBlock(m, h, n, h, n, 0)
	setDiagonal(m, 1)
	return m
}

// Ones returns an n×n matrix of ones.
func Ones(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	fillBlock(m, 0, n, 0, n, 1)
	return m
}

// Random returns an n×n matrix with entries drawn uniformly from [0, 1).
func Random(n int, rng *rand.Rand) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, rng.Float64())
		}
	}
	return m
}

// Float32s flattens m row-major for tensor creation.
func Float32s(m mat.Matrix) []float32 {
	r, c := m.Dims()
	out := make([]float32, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, float32(m.At(i, j)))
		}
	}
	return out
}

// FromFloat32s builds an n×n dense matrix from row-major float32 data.
func FromFloat32s(n int, data []float32) *mat.Dense {
	vals := make([]float64, len(data))
	for i, v := range data {
		vals[i] = float64(v)
	}
	return mat.NewDense(n, n, vals)
}
