package gcn

import (
	"math"
	"testing"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/tensor"
	"github.com/born-ml/crossgcn/internal/adjacency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Backend = *autodiff.Backend[*cpu.Backend]

func newBackend() Backend {
	return autodiff.New(cpu.New())
}

func assertTensorsClose(t *testing.T, want, got *tensor.Tensor[float32, Backend], delta float64, msg string) {
	t.Helper()
	require.True(t, want.Shape().Equal(got.Shape()), "%s: shape %v != %v", msg, want.Shape(), got.Shape())
	wd, gd := want.Data(), got.Data()
	for i := range wd {
		assert.InDelta(t, wd[i], gd[i], delta, "%s: index %d", msg, i)
	}
}

// TestGraphConvolution_IdentityAdjacency tests that an identity adjacency
// reduces the layer to its linear projection.
func TestGraphConvolution_IdentityAdjacency(t *testing.T) {
	backend := newBackend()

	cases := []struct{ batch, nodes, in, out int }{
		{1, 6, 64, 128},
		{2, 12, 64, 64},
		{3, 5, 7, 2},
	}
	for _, c := range cases {
		gc := NewGraphConvolution(c.in, c.out, newRand(1), backend)
		x := tensor.Randn[float32](tensor.Shape{c.batch, c.nodes, c.in}, backend)
		eye := tensor.Eye[float32](c.nodes, backend)

		got := gc.Forward(x, eye)
		want := gc.Linear().Forward(x.Reshape(c.batch*c.nodes, c.in)).Reshape(c.batch, c.nodes, c.out)

		assertTensorsClose(t, want, got, 1e-5, "identity adjacency")
	}
}

// TestPropagate_MatchesPerSampleProduct compares the folded MatMul with an
// explicit adj @ x[b] loop.
func TestPropagate_MatchesPerSampleProduct(t *testing.T) {
	backend := newBackend()
	const batch, nodes, features = 3, 4, 5

	adj := tensor.Randn[float32](tensor.Shape{nodes, nodes}, backend)
	x := tensor.Randn[float32](tensor.Shape{batch, nodes, features}, backend)

	got := Propagate(adj, x)
	require.Equal(t, tensor.Shape{batch, nodes, features}, got.Shape())

	for b := 0; b < batch; b++ {
		for i := 0; i < nodes; i++ {
			for f := 0; f < features; f++ {
				var want float32
				for j := 0; j < nodes; j++ {
					want += adj.At(i, j) * x.At(b, j, f)
				}
				assert.InDelta(t, want, got.At(b, i, f), 1e-4, "[%d,%d,%d]", b, i, f)
			}
		}
	}
}

func TestPropagate_ShapeMismatch(t *testing.T) {
	backend := newBackend()
	x := tensor.Zeros[float32](tensor.Shape{2, 6, 4}, backend)

	assert.Panics(t, func() {
		Propagate(tensor.Eye[float32](12, backend), x)
	})
	assert.Panics(t, func() {
		Propagate(tensor.Zeros[float32](tensor.Shape{6, 5}, backend), x)
	})
	assert.Panics(t, func() {
		Propagate(tensor.Eye[float32](6, backend), tensor.Zeros[float32](tensor.Shape{6, 4}, backend))
	})
}

func TestGraphConvolution_ForwardPanicsOnFeatureMismatch(t *testing.T) {
	backend := newBackend()
	gc := NewGraphConvolution(8, 4, newRand(1), backend)

	assert.Panics(t, func() {
		gc.Forward(tensor.Zeros[float32](tensor.Shape{2, 6, 7}, backend), tensor.Eye[float32](6, backend))
	})
	assert.Panics(t, func() {
		gc.Forward(tensor.Zeros[float32](tensor.Shape{6, 8}, backend), tensor.Eye[float32](6, backend))
	})
}

// TestGraphConvolution_Init checks Xavier-normal weights and zero bias.
func TestGraphConvolution_Init(t *testing.T) {
	backend := newBackend()
	gc := NewGraphConvolution(64, 128, newRand(42), backend)

	assert.Equal(t, 64, gc.InFeatures())
	assert.Equal(t, 128, gc.OutFeatures())
	assert.Equal(t, tensor.Shape{128, 64}, gc.Linear().Weight().Tensor().Shape())

	for _, v := range gc.Linear().Bias().Tensor().Data() {
		assert.Zero(t, v)
	}

	weights := gc.Linear().Weight().Tensor().Data()
	var sum, sumSq float64
	for _, v := range weights {
		sum += float64(v)
		sumSq += float64(v) * float64(v)
	}
	n := float64(len(weights))
	mean := sum / n
	std := math.Sqrt(sumSq/n - mean*mean)

	wantStd := math.Sqrt(2.0 / (64 + 128))
	assert.InDelta(t, 0, mean, 0.01)
	assert.InDelta(t, wantStd, std, wantStd*0.1)
}

func TestGraphConvolution_SameSeedSameWeights(t *testing.T) {
	backend := newBackend()
	a := NewGraphConvolution(16, 8, newRand(5), backend)
	b := NewGraphConvolution(16, 8, newRand(5), backend)
	c := NewGraphConvolution(16, 8, newRand(6), backend)

	assert.Equal(t, a.Linear().Weight().Tensor().Data(), b.Linear().Weight().Tensor().Data())
	assert.NotEqual(t, a.Linear().Weight().Tensor().Data(), c.Linear().Weight().Tensor().Data())
}

func TestGraphConvolution_StateDict(t *testing.T) {
	backend := newBackend()
	src := NewGraphConvolution(6, 3, newRand(1), backend)
	dst := NewGraphConvolution(6, 3, newRand(2), backend)

	sd := src.StateDict()
	require.Contains(t, sd, "fc.weight")
	require.Contains(t, sd, "fc.bias")
	assert.Len(t, src.Parameters(), 2)

	require.NoError(t, dst.LoadStateDict(sd))
	assert.Equal(t, src.Linear().Weight().Tensor().Data(), dst.Linear().Weight().Tensor().Data())

	err := dst.LoadStateDict(map[string]*tensor.RawTensor{})
	assert.Error(t, err)
}

func TestNormalizeRows_Tensor(t *testing.T) {
	backend := newBackend()
	adj, err := tensor.FromSlice([]float32{
		1, 3, 0,
		2, 2, 4,
		0, 0, 5,
	}, tensor.Shape{3, 3}, backend)
	require.NoError(t, err)

	norm := NormalizeRows(adj)
	want := []float32{
		0.25, 0.75, 0,
		0.25, 0.25, 0.5,
		0, 0, 1,
	}
	for i, v := range norm.Data() {
		assert.InDelta(t, want[i], v, 1e-6, "index %d", i)
	}
	assert.Equal(t, float32(3), adj.At(0, 1), "input must not change")
}

func TestCheckRows_Tensor(t *testing.T) {
	backend := newBackend()
	good := tensor.Eye[float32](4, backend)
	assert.NoError(t, CheckRows(good))

	bad := tensor.Zeros[float32](tensor.Shape{3, 3}, backend)
	bad.Set(1, 0, 0)
	bad.Set(1, 2, 2)
	var zr *adjacency.ZeroRowError
	require.ErrorAs(t, CheckRows(bad), &zr)
	assert.Equal(t, 1, zr.Row)

	assert.ErrorIs(t, CheckRows(tensor.Zeros[float32](tensor.Shape{2, 3}, backend)), adjacency.ErrNotSquare)
}
