package gcn

import (
	"fmt"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
	"github.com/born-ml/crossgcn/internal/adjacency"
)

// GCN is a two-layer graph convolution over the 12-node joint graph with
// one learnable adjacency shared by both layers.
//
// Forward: gc2(Dropout(ReLU(gc1(x, A))), A) where A is the adjacency
// parameter, multiplied by the ablation mask when one is configured. The
// adjacency is used as-is; it is not normalised.
type GCN[B tensor.Backend] struct {
	cfg     GCNConfig
	gc1     *GraphConvolution[B]
	gc2     *GraphConvolution[B]
	dropout *Dropout[B]
	adj     *nn.Parameter[B]           // [12, 12]
	mask    *tensor.Tensor[float32, B] // [12, 12], nil without a mask
}

// NewGCN creates the joint-graph GCN.
func NewGCN[B tensor.Backend](cfg GCNConfig, backend B) (*GCN[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	const n = adjacency.JointNodes
	rng := newRand(cfg.Seed)

	m := &GCN[B]{
		cfg:     cfg,
		gc1:     NewGraphConvolution(cfg.DimIn, cfg.DimHid, rng, backend),
		gc2:     NewGraphConvolution(cfg.DimHid, cfg.DimOut, rng, backend),
		dropout: NewDropout[B](cfg.Dropout, rng),
		adj:     nn.NewParameter("adj", matrixTensor(adjacency.Float32s(adjacency.Joint(cfg.Links)), n, backend)),
	}
	if mask := cfg.Mask.Matrix(); mask != nil {
		m.mask = matrixTensor(adjacency.Float32s(mask), n, backend)
	}
	return m, nil
}

// Adjacency returns the matrix used for propagation: the parameter, or
// parameter ⊙ mask when a mask is configured. The parameter is never
// modified.
func (m *GCN[B]) Adjacency() *tensor.Tensor[float32, B] {
	adj := m.adj.Tensor()
	if m.mask == nil {
		return adj
	}
	defer adj.Raw().ForceNonUnique()()
	return adj.Mul(m.mask)
}

// Forward runs both layers on input [batch, 12, DimIn] and returns
// [batch, 12, DimOut].
func (m *GCN[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 3 || shape[1] != adjacency.JointNodes {
		panic(fmt.Sprintf("GCN.Forward: expected input [batch, %d, %d], got shape %v",
			adjacency.JointNodes, m.cfg.DimIn, shape))
	}

	adj := m.Adjacency()
	x := m.gc1.Forward(input, adj)
	x = nn.ReLUFunc(x)
	x = m.dropout.Forward(x)
	return m.gc2.Forward(x, adj)
}

// Parameters returns gc1, gc2 and adjacency parameters.
func (m *GCN[B]) Parameters() []*nn.Parameter[B] {
	params := make([]*nn.Parameter[B], 0, 5)
	params = append(params, m.gc1.Parameters()...)
	params = append(params, m.gc2.Parameters()...)
	params = append(params, m.adj)
	return params
}

// AdjacencyParameter returns the learnable joint adjacency.
func (m *GCN[B]) AdjacencyParameter() *nn.Parameter[B] {
	return m.adj
}

// Mask returns the configured ablation mask.
func (m *GCN[B]) Mask() adjacency.Mask {
	return m.cfg.Mask
}

// Config returns the configuration the model was built with.
func (m *GCN[B]) Config() GCNConfig {
	return m.cfg
}

// Train enables dropout.
func (m *GCN[B]) Train() {
	m.dropout.SetTraining(true)
}

// Eval disables dropout.
func (m *GCN[B]) Eval() {
	m.dropout.SetTraining(false)
}

// Training reports whether dropout is active.
func (m *GCN[B]) Training() bool {
	return m.dropout.Training()
}

// StateDict returns all parameters keyed "gc1.fc.weight", ..., "adj".
// The mask is derived from the config and not stored.
func (m *GCN[B]) StateDict() map[string]*tensor.RawTensor {
	sd := map[string]*tensor.RawTensor{"adj": m.adj.Tensor().Raw()}
	mergeInto(sd, withPrefix("gc1.", m.gc1.StateDict()))
	mergeInto(sd, withPrefix("gc2.", m.gc2.StateDict()))
	return sd
}

// LoadStateDict loads parameters produced by StateDict.
func (m *GCN[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadParameter(m.adj, stateDict, "adj"); err != nil {
		return err
	}
	if err := m.gc1.LoadStateDict(stripPrefix("gc1.", stateDict)); err != nil {
		return fmt.Errorf("gc1: %w", err)
	}
	if err := m.gc2.LoadStateDict(stripPrefix("gc2.", stateDict)); err != nil {
		return fmt.Errorf("gc2: %w", err)
	}
	return nil
}
