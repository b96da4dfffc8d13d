// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package gcn

import (
	"math/rand/v2"

	"github.com/born-ml/born/tensor"
	"github.com/born-ml/crossgcn/internal/adjacency"
	"github.com/born-ml/crossgcn/internal/gcn"
	"gonum.org/v1/gonum/mat"
)

// Graph sizes.
const (
	DomainNodes = adjacency.DomainNodes // Nodes per domain.
	JointNodes  = adjacency.JointNodes  // Nodes in the joint graph.
)

// Errors

var (
	// ErrInvalidConfig is wrapped by every configuration validation error.
	ErrInvalidConfig = gcn.ErrInvalidConfig

	// ErrConflictingInit is returned when both random and all-ones
	// adjacency init are requested.
	ErrConflictingInit = gcn.ErrConflictingInit

	// ErrUnknownInit is returned for unrecognised adjacency init names.
	ErrUnknownInit = gcn.ErrUnknownInit

	// ErrUnknownMask is returned for unrecognised mask names.
	ErrUnknownMask = adjacency.ErrUnknownMask

	// ErrZeroRowSum is wrapped when an adjacency row cannot be normalised.
	ErrZeroRowSum = adjacency.ErrZeroRowSum
)

// ZeroRowError reports the first adjacency row without positive weight.
type ZeroRowError = adjacency.ZeroRowError

// Configuration

// Config holds the options shared by GCN and IntraInterGCN.
type Config = gcn.Config

// GCNConfig configures GCN.
type GCNConfig = gcn.GCNConfig

// IntraInterConfig configures IntraInterGCN.
type IntraInterConfig = gcn.IntraInterConfig

// DefaultConfig returns 64→128→64 dimensions, default links and dropout 0.5.
func DefaultConfig() Config {
	return gcn.DefaultConfig()
}

// DefaultGCNConfig returns DefaultConfig without a mask.
func DefaultGCNConfig() GCNConfig {
	return gcn.DefaultGCNConfig()
}

// DefaultIntraInterConfig enables both stages with structured seeds.
func DefaultIntraInterConfig() IntraInterConfig {
	return gcn.DefaultIntraInterConfig()
}

// AdjacencyInit selects how the IntraInterGCN matrices are seeded.
type AdjacencyInit = gcn.AdjacencyInit

// Adjacency init modes.
const (
	InitStructured = gcn.InitStructured
	InitRandom     = gcn.InitRandom
	InitOnes       = gcn.InitOnes
)

// ParseInit converts "structured", "random" or "ones" into an AdjacencyInit.
func ParseInit(s string) (AdjacencyInit, error) {
	return gcn.ParseInit(s)
}

// ResolveInit maps the random/all-ones switches onto an AdjacencyInit.
// Both true is ErrConflictingInit.
func ResolveInit(useRandomMatrix, useAllOneMatrix bool) (AdjacencyInit, error) {
	return gcn.ResolveInit(useRandomMatrix, useAllOneMatrix)
}

// Adjacency

// Links holds the five link strengths.
type Links = adjacency.Links

// DefaultLinks returns link1..link5 = 0.8, 0.5, 0.9, 0.4, 0.25.
func DefaultLinks() Links {
	return adjacency.DefaultLinks()
}

// Mask selects one link category to ablate from the joint adjacency.
type Mask = adjacency.Mask

// Masks.
const (
	MaskNone  = adjacency.MaskNone
	MaskLink1 = adjacency.MaskLink1
	MaskLink2 = adjacency.MaskLink2
	MaskLink3 = adjacency.MaskLink3
	MaskLink4 = adjacency.MaskLink4
	MaskLink5 = adjacency.MaskLink5
)

// ParseMask converts "none" or "link1".."link5" into a Mask.
func ParseMask(s string) (Mask, error) {
	return adjacency.ParseMask(s)
}

// Joint returns the 12×12 seed used by GCN.
func Joint(l Links) *mat.Dense {
	return adjacency.Joint(l)
}

// Intra returns the 6×6 within-domain seed used by IntraInterGCN.
func Intra(l Links) *mat.Dense {
	return adjacency.Intra(l)
}

// Inter returns the 12×12 cross-domain seed used by IntraInterGCN.
func Inter(l Links) *mat.Dense {
	return adjacency.Inter(l)
}

// InterMask returns the fixed mask keeping cross-domain edges and the
// diagonal.
func InterMask() *mat.Dense {
	return adjacency.InterMask()
}

// NormalizeRows clamps negatives to zero and scales every row to sum to
// one. A row without positive weight yields a *ZeroRowError.
func NormalizeRows(m mat.Matrix) (*mat.Dense, error) {
	return adjacency.NormalizeRows(m)
}

// Layers

// GraphConvolution projects node features and propagates them over an
// adjacency matrix.
type GraphConvolution[B tensor.Backend] = gcn.GraphConvolution[B]

// NewGraphConvolution creates a GraphConvolution layer.
//
// Example:
//
//	backend := cpu.New()
//	gc := gcn.NewGraphConvolution(64, 128, rng, backend)
func NewGraphConvolution[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *GraphConvolution[B] {
	return gcn.NewGraphConvolution(inFeatures, outFeatures, rng, backend)
}

// Dropout zeroes elements with probability p in training mode.
type Dropout[B tensor.Backend] = gcn.Dropout[B]

// NewDropout creates a Dropout layer in training mode.
func NewDropout[B tensor.Backend](p float32, rng *rand.Rand) *Dropout[B] {
	return gcn.NewDropout[B](p, rng)
}

// Propagate computes adj @ x[b] for every sample of x [batch, N, F].
func Propagate[B tensor.Backend](adj, x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return gcn.Propagate(adj, x)
}

// Models

// GCN is a two-layer graph convolution over the joint graph.
type GCN[B tensor.Backend] = gcn.GCN[B]

// NewGCN creates a GCN.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	model, err := gcn.NewGCN(gcn.DefaultGCNConfig(), backend)
func NewGCN[B tensor.Backend](cfg GCNConfig, backend B) (*GCN[B], error) {
	return gcn.NewGCN(cfg, backend)
}

// IntraInterGCN fuses source and target features with a shared
// within-domain stack and a cross-domain layer.
type IntraInterGCN[B tensor.Backend] = gcn.IntraInterGCN[B]

// NewIntraInterGCN creates an IntraInterGCN.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	model, err := gcn.NewIntraInterGCN(gcn.DefaultIntraInterConfig(), backend)
func NewIntraInterGCN[B tensor.Backend](cfg IntraInterConfig, backend B) (*IntraInterGCN[B], error) {
	return gcn.NewIntraInterGCN(cfg, backend)
}
