package gcn

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
	"github.com/born-ml/crossgcn/internal/adjacency"
	"gonum.org/v1/gonum/mat"
)

// IntraInterGCN fuses source and target node features with a shared
// within-domain stack followed by one cross-domain layer.
//
// Input [batch, 12, DimIn] is split into source (nodes 0..5) and target
// (nodes 6..11). Each half goes through the same two-layer stack
// (IntraGCN) over the 6×6 Intra matrix, the halves are concatenated back,
// and one layer (InterGCN) propagates over the masked 12×12 Inter matrix.
//
// The Intra and Inter parameters are learnable. The matrices used for
// propagation are derived from them on every Forward:
//
//	inter = inter_param ⊙ inter_mask
//	A     = normalize_rows(max(A, 0))   for A in {intra, inter}
type IntraInterGCN[B tensor.Backend] struct {
	cfg IntraInterConfig

	intra1   *GraphConvolution[B] // DimIn -> DimHid
	intra2   *GraphConvolution[B] // DimHid -> DimOut
	inter    *GraphConvolution[B] // DimOut -> DimOut
	dropout  *Dropout[B]
	intraAdj *nn.Parameter[B] // [6, 6]
	interAdj *nn.Parameter[B] // [12, 12]

	interMask *tensor.Tensor[float32, B] // [12, 12] buffer
}

// NewIntraInterGCN creates the model. It fails if the config is invalid or
// the seeds leave a row without positive weight.
func NewIntraInterGCN[B tensor.Backend](cfg IntraInterConfig, backend B) (*IntraInterGCN[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := newRand(cfg.Seed)
	intraSeed, interSeed := seedMatrices(cfg, rng)
	maskSeed := adjacency.InterMask()

	if err := adjacency.CheckRows(intraSeed); err != nil {
		return nil, fmt.Errorf("intra adjacency: %w", err)
	}
	if err := adjacency.CheckRows(adjacency.ApplyMask(interSeed, maskSeed)); err != nil {
		return nil, fmt.Errorf("inter adjacency: %w", err)
	}

	const h, n = adjacency.DomainNodes, adjacency.JointNodes
	return &IntraInterGCN[B]{
		cfg:       cfg,
		intra1:    NewGraphConvolution(cfg.DimIn, cfg.DimHid, rng, backend),
		intra2:    NewGraphConvolution(cfg.DimHid, cfg.DimOut, rng, backend),
		inter:     NewGraphConvolution(cfg.DimOut, cfg.DimOut, rng, backend),
		dropout:   NewDropout[B](cfg.Dropout, rng),
		intraAdj:  nn.NewParameter("intra_adj", matrixTensor(adjacency.Float32s(intraSeed), h, backend)),
		interAdj:  nn.NewParameter("inter_adj", matrixTensor(adjacency.Float32s(interSeed), n, backend)),
		interMask: matrixTensor(adjacency.Float32s(maskSeed), n, backend),
	}, nil
}

func seedMatrices(cfg IntraInterConfig, rng *rand.Rand) (intra, inter *mat.Dense) {
	const h, n = adjacency.DomainNodes, adjacency.JointNodes
	switch cfg.Init {
	case InitRandom:
		return adjacency.Random(h, rng), adjacency.Random(n, rng)
	case InitOnes:
		return adjacency.Ones(h), adjacency.Ones(n)
	default:
		return adjacency.Intra(cfg.Links), adjacency.Inter(cfg.Links)
	}
}

// EffectiveAdjacency returns the Intra [6, 6] and Inter [12, 12] matrices
// used by Forward.
//
// By default they are computed from the parameters with recorded tensor
// ops, so gradients flow through the mask, clamp and normalisation, and
// the parameters are left untouched. With WriteBack the normalised values
// are stored into the parameters and the parameters are returned.
//
// A row without positive weight yields an *adjacency.ZeroRowError.
func (m *IntraInterGCN[B]) EffectiveAdjacency() (intra, inter *tensor.Tensor[float32, B], err error) {
	if m.cfg.WriteBack {
		return m.writeBack()
	}

	intraParam, interParam := m.intraAdj.Tensor(), m.interAdj.Tensor()
	defer intraParam.Raw().ForceNonUnique()()
	defer interParam.Raw().ForceNonUnique()()

	intra = nn.ReLUFunc(intraParam)
	inter = nn.ReLUFunc(interParam.Mul(m.interMask))

	if err := CheckRows(intra); err != nil {
		return nil, nil, fmt.Errorf("intra adjacency: %w", err)
	}
	if err := CheckRows(inter); err != nil {
		return nil, nil, fmt.Errorf("inter adjacency: %w", err)
	}
	return NormalizeRows(intra), NormalizeRows(inter), nil
}

// writeBack overwrites the parameters with their masked, clamped and
// normalised values. The masked and clamped values are stored before
// normalisation, so they stay in the parameters even when a row then
// fails to normalise.
func (m *IntraInterGCN[B]) writeBack() (intra, inter *tensor.Tensor[float32, B], err error) {
	const h, n = adjacency.DomainNodes, adjacency.JointNodes
	intraParam, interParam := m.intraAdj.Tensor(), m.interAdj.Tensor()

	clampedIntra := adjacency.FromFloat32s(h, intraParam.Data())
	adjacency.ClampNegative(clampedIntra)
	maskedInter := adjacency.ApplyMask(adjacency.FromFloat32s(n, interParam.Data()), adjacency.InterMask())
	adjacency.ClampNegative(maskedInter)

	copy(intraParam.Data(), adjacency.Float32s(clampedIntra))
	copy(interParam.Data(), adjacency.Float32s(maskedInter))

	intraNorm, err := adjacency.NormalizeRows(clampedIntra)
	if err != nil {
		return nil, nil, fmt.Errorf("intra adjacency: %w", err)
	}
	interNorm, err := adjacency.NormalizeRows(maskedInter)
	if err != nil {
		return nil, nil, fmt.Errorf("inter adjacency: %w", err)
	}

	copy(intraParam.Data(), adjacency.Float32s(intraNorm))
	copy(interParam.Data(), adjacency.Float32s(interNorm))
	return intraParam, interParam, nil
}

// Forward fuses input [batch, 12, DimIn] into [batch, 12, OutputDim()].
//
// Panics on a malformed input shape, or with the wrapped
// *adjacency.ZeroRowError when a derived adjacency row has no weight.
func (m *IntraInterGCN[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 3 || shape[1] != adjacency.JointNodes || shape[2] != m.cfg.DimIn {
		panic(fmt.Sprintf("IntraInterGCN.Forward: expected input [batch, %d, %d], got shape %v",
			adjacency.JointNodes, m.cfg.DimIn, shape))
	}

	intra, inter, err := m.EffectiveAdjacency()
	if err != nil {
		panic(fmt.Errorf("IntraInterGCN.Forward: %w", err))
	}

	halves := input.Chunk(2, 1)
	source, target := halves[0], halves[1]

	if m.cfg.UseIntraGCN {
		source = m.intraForward(source, intra)
		target = m.intraForward(target, intra)
	}

	feature := tensor.Cat([]*tensor.Tensor[float32, B]{source, target}, 1)

	if m.cfg.UseInterGCN {
		feature = m.inter.Forward(feature, inter)
	}
	return feature
}

// intraForward runs the shared within-domain stack on one half.
func (m *IntraInterGCN[B]) intraForward(x, adj *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x = m.intra1.Forward(x, adj)
	x = m.dropout.Forward(nn.ReLUFunc(x))
	return m.intra2.Forward(x, adj)
}

// Parameters returns the projection parameters of all three layers followed
// by the Intra and Inter adjacency parameters.
func (m *IntraInterGCN[B]) Parameters() []*nn.Parameter[B] {
	params := make([]*nn.Parameter[B], 0, 8)
	params = append(params, m.intra1.Parameters()...)
	params = append(params, m.intra2.Parameters()...)
	params = append(params, m.inter.Parameters()...)
	params = append(params, m.intraAdj, m.interAdj)
	return params
}

// IntraAdjacency returns the learnable 6×6 parameter.
func (m *IntraInterGCN[B]) IntraAdjacency() *nn.Parameter[B] {
	return m.intraAdj
}

// InterAdjacency returns the learnable 12×12 parameter.
func (m *IntraInterGCN[B]) InterAdjacency() *nn.Parameter[B] {
	return m.interAdj
}

// InterMask returns the fixed cross-domain mask buffer.
func (m *IntraInterGCN[B]) InterMask() *tensor.Tensor[float32, B] {
	return m.interMask
}

// Config returns the configuration the model was built with.
func (m *IntraInterGCN[B]) Config() IntraInterConfig {
	return m.cfg
}

// Train enables dropout.
func (m *IntraInterGCN[B]) Train() {
	m.dropout.SetTraining(true)
}

// Eval disables dropout.
func (m *IntraInterGCN[B]) Eval() {
	m.dropout.SetTraining(false)
}

// Training reports whether dropout is active.
func (m *IntraInterGCN[B]) Training() bool {
	return m.dropout.Training()
}

// StateDict returns all parameters keyed "intra_gcn1.fc.weight",
// "intra_gcn2.*", "inter_gcn.*", "intra_adj" and "inter_adj". The mask is
// constant and not stored.
func (m *IntraInterGCN[B]) StateDict() map[string]*tensor.RawTensor {
	sd := map[string]*tensor.RawTensor{
		"intra_adj": m.intraAdj.Tensor().Raw(),
		"inter_adj": m.interAdj.Tensor().Raw(),
	}
	mergeInto(sd, withPrefix("intra_gcn1.", m.intra1.StateDict()))
	mergeInto(sd, withPrefix("intra_gcn2.", m.intra2.StateDict()))
	mergeInto(sd, withPrefix("inter_gcn.", m.inter.StateDict()))
	return sd
}

// LoadStateDict loads parameters produced by StateDict.
func (m *IntraInterGCN[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadParameter(m.intraAdj, stateDict, "intra_adj"); err != nil {
		return err
	}
	if err := loadParameter(m.interAdj, stateDict, "inter_adj"); err != nil {
		return err
	}

	layers := []struct {
		prefix string
		layer  *GraphConvolution[B]
	}{
		{"intra_gcn1.", m.intra1},
		{"intra_gcn2.", m.intra2},
		{"inter_gcn.", m.inter},
	}
	for _, l := range layers {
		if err := l.layer.LoadStateDict(stripPrefix(l.prefix, stateDict)); err != nil {
			return fmt.Errorf("%s: %w", strings.TrimSuffix(l.prefix, "."), err)
		}
	}
	return nil
}
