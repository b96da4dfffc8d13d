package gcn

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

// Dropout zeroes each element with probability p during training and
// scales the survivors by 1/(1-p). In evaluation mode it is the identity.
//
// Example:
//
//	drop := gcn.NewDropout[B](0.5, rng)
//	drop.SetTraining(false)
//	y := drop.Forward(x) // y == x
type Dropout[B tensor.Backend] struct {
	p        float32
	rng      *rand.Rand
	training bool
}

// NewDropout creates a Dropout layer in training mode.
func NewDropout[B tensor.Backend](p float32, rng *rand.Rand) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("Dropout: probability must be in [0, 1), got %v", p))
	}
	return &Dropout[B]{p: p, rng: rng, training: true}
}

// Forward applies the dropout mask.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.p == 0 {
		return input
	}

	scale := 1 / (1 - d.p)
	mask := make([]float32, input.NumElements())
	for i := range mask {
		if d.rng.Float32() >= d.p {
			mask[i] = scale
		}
	}

	maskTensor, err := tensor.FromSlice(mask, input.Shape(), input.Backend())
	if err != nil {
		panic(fmt.Sprintf("Dropout.Forward: %v", err))
	}
	return input.Mul(maskTensor)
}

// P returns the drop probability.
func (d *Dropout[B]) P() float32 {
	return d.p
}

// SetTraining switches between training (masking) and evaluation.
func (d *Dropout[B]) SetTraining(training bool) {
	d.training = training
}

// Training reports whether the layer is in training mode.
func (d *Dropout[B]) Training() bool {
	return d.training
}

// Parameters returns nil; dropout has no trainable parameters.
func (d *Dropout[B]) Parameters() []*nn.Parameter[B] {
	return nil
}

// StateDict returns an empty state dictionary.
func (d *Dropout[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (d *Dropout[B]) LoadStateDict(map[string]*tensor.RawTensor) error {
	return nil
}
