package gcn

import (
	"testing"

	"github.com/born-ml/born/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDropout_EvalIsIdentity(t *testing.T) {
	backend := newBackend()
	drop := NewDropout[Backend](0.5, newRand(1))
	assert.True(t, drop.Training())

	drop.SetTraining(false)
	x := tensor.Randn[float32](tensor.Shape{2, 12, 8}, backend)
	assert.Equal(t, x.Data(), drop.Forward(x).Data())
}

func TestDropout_ZeroProbabilityIsIdentity(t *testing.T) {
	backend := newBackend()
	drop := NewDropout[Backend](0, newRand(1))

	x := tensor.Randn[float32](tensor.Shape{4, 16}, backend)
	assert.Equal(t, x.Data(), drop.Forward(x).Data())
}

func TestDropout_TrainingMasksAndScales(t *testing.T) {
	backend := newBackend()
	const p = 0.5
	drop := NewDropout[Backend](p, newRand(3))

	x := tensor.Ones[float32](tensor.Shape{100, 100}, backend)
	y := drop.Forward(x)
	require.Equal(t, x.Shape(), y.Shape())

	var zeros int
	for _, v := range y.Data() {
		if v == 0 {
			zeros++
			continue
		}
		assert.InDelta(t, 2.0, v, 1e-6)
	}
	frac := float64(zeros) / float64(y.NumElements())
	assert.InDelta(t, p, frac, 0.05)
}

func TestDropout_SameSeedSameMask(t *testing.T) {
	backend := newBackend()
	x := tensor.Ones[float32](tensor.Shape{8, 8}, backend)

	a := NewDropout[Backend](0.3, newRand(11)).Forward(x)
	b := NewDropout[Backend](0.3, newRand(11)).Forward(x)
	assert.Equal(t, a.Data(), b.Data())
}

func TestDropout_InvalidProbability(t *testing.T) {
	assert.Panics(t, func() { NewDropout[Backend](1, newRand(1)) })
	assert.Panics(t, func() { NewDropout[Backend](-0.1, newRand(1)) })
}

func TestDropout_NoParameters(t *testing.T) {
	drop := NewDropout[Backend](0.2, newRand(1))
	assert.Empty(t, drop.Parameters())
	assert.Empty(t, drop.StateDict())
	assert.NoError(t, drop.LoadStateDict(nil))
	assert.InDelta(t, 0.2, drop.P(), 1e-7)
}
