package gcn

import (
	"math"
	"math/rand/v2"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

// newRand returns the generator used for init and dropout.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// XavierNormal fills t with values from N(0, 2/(fanIn+fanOut)).
//
// Born's nn.Xavier draws from the uniform variant; graph convolutions are
// initialised from the normal one.
func XavierNormal[B tensor.Backend](fanIn, fanOut int, t *tensor.Tensor[float32, B], rng *rand.Rand) {
	std := math.Sqrt(2.0 / float64(fanIn+fanOut))
	data := t.Data()
	for i := range data {
		data[i] = float32(rng.NormFloat64() * std)
	}
}

// newLinear builds an nn.Linear with Xavier-normal weights and zero bias.
func newLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *nn.Linear[B] {
	fc := nn.NewLinear(inFeatures, outFeatures, backend)
	XavierNormal(inFeatures, outFeatures, fc.Weight().Tensor(), rng)

	bias := fc.Bias().Tensor().Data()
	for i := range bias {
		bias[i] = 0
	}
	return fc
}
