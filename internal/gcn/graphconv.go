package gcn

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

// GraphConvolution is a learnable projection followed by propagation over
// a fixed adjacency matrix.
//
// Performs: y[b] = A @ (x[b] @ W.T + bias)
// where:
//   - x is the input with shape [batch, nodes, in_features]
//   - A is the adjacency with shape [nodes, nodes]
//   - y is the output with shape [batch, nodes, out_features]
//
// The projection weight is Xavier-normal initialised and the bias zeroed.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	gc := gcn.NewGraphConvolution[B](64, 128, rng, backend)
//	out := gc.Forward(x, adj) // [batch, 6, 64] -> [batch, 6, 128]
type GraphConvolution[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	fc          *nn.Linear[B]
}

// NewGraphConvolution creates a GraphConvolution layer.
func NewGraphConvolution[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *GraphConvolution[B] {
	return &GraphConvolution[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		fc:          newLinear(inFeatures, outFeatures, rng, backend),
	}
}

// Forward projects every node then propagates over adj.
func (g *GraphConvolution[B]) Forward(input, adj *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("GraphConvolution.Forward: expected 3D input [batch, nodes, features], got shape %v", shape))
	}
	if shape[2] != g.inFeatures {
		panic(fmt.Sprintf("GraphConvolution.Forward: expected %d input features, got %d", g.inFeatures, shape[2]))
	}

	batch, nodes := shape[0], shape[1]
	support := g.fc.Forward(input.Reshape(batch*nodes, g.inFeatures))
	support = support.Reshape(batch, nodes, g.outFeatures)

	return Propagate(adj, support)
}

// Parameters returns [weight, bias] of the projection.
func (g *GraphConvolution[B]) Parameters() []*nn.Parameter[B] {
	return g.fc.Parameters()
}

// Linear returns the projection layer.
func (g *GraphConvolution[B]) Linear() *nn.Linear[B] {
	return g.fc
}

// InFeatures returns the number of input features per node.
func (g *GraphConvolution[B]) InFeatures() int {
	return g.inFeatures
}

// OutFeatures returns the number of output features per node.
func (g *GraphConvolution[B]) OutFeatures() int {
	return g.outFeatures
}

// StateDict returns the projection parameters as "fc.weight" and "fc.bias".
func (g *GraphConvolution[B]) StateDict() map[string]*tensor.RawTensor {
	return withPrefix("fc.", g.fc.StateDict())
}

// LoadStateDict loads parameters produced by StateDict.
func (g *GraphConvolution[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := g.fc.LoadStateDict(stripPrefix("fc.", stateDict)); err != nil {
		return fmt.Errorf("fc: %w", err)
	}
	return nil
}

// withPrefix returns a copy of sd with prefix prepended to every key.
func withPrefix(prefix string, sd map[string]*tensor.RawTensor) map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor, len(sd))
	for k, v := range sd {
		out[prefix+k] = v
	}
	return out
}

// stripPrefix selects the entries of sd under prefix and removes it.
func stripPrefix(prefix string, sd map[string]*tensor.RawTensor) map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor)
	for k, v := range sd {
		if rest, ok := strings.CutPrefix(k, prefix); ok {
			out[rest] = v
		}
	}
	return out
}

// mergeInto copies every entry of src into dst.
func mergeInto(dst, src map[string]*tensor.RawTensor) {
	for k, v := range src {
		dst[k] = v
	}
}

// loadParameter copies raw into p after checking shape and dtype.
func loadParameter[B tensor.Backend](p *nn.Parameter[B], stateDict map[string]*tensor.RawTensor, key string) error {
	raw, ok := stateDict[key]
	if !ok {
		return fmt.Errorf("missing %s in state dict", key)
	}
	want := p.Tensor().Shape()
	if !raw.Shape().Equal(want) {
		return fmt.Errorf("%s shape mismatch: expected %v, got %v", key, want, raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("%s dtype mismatch: expected float32, got %v", key, raw.DType())
	}
	copy(p.Tensor().Data(), raw.AsFloat32())
	return nil
}
