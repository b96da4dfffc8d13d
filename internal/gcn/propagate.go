package gcn

import (
	"fmt"

	"github.com/born-ml/born/tensor"
	"github.com/born-ml/crossgcn/internal/adjacency"
)

// Propagate multiplies every node-feature matrix in the batch by adj.
//
// Input shapes: adj [N, N], x [batch, N, F]. Output: [batch, N, F].
//
// The batch is folded into the feature axis so a single 2D MatMul covers
// all samples:
//
//	[batch, N, F] -> [N, batch, F] -> [N, batch*F]
//	adj @ that    -> [N, batch*F]  -> [batch, N, F]
//
// Every step is recorded by the autodiff backend, so gradients reach both
// adj and x.
func Propagate[B tensor.Backend](adj, x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	adjShape, xShape := adj.Shape(), x.Shape()
	if len(adjShape) != 2 || adjShape[0] != adjShape[1] {
		panic(fmt.Sprintf("Propagate: expected square 2D adjacency, got shape %v", adjShape))
	}
	if len(xShape) != 3 {
		panic(fmt.Sprintf("Propagate: expected 3D input [batch, nodes, features], got shape %v", xShape))
	}
	if xShape[1] != adjShape[0] {
		panic(fmt.Sprintf("Propagate: adjacency has %d nodes, input has %d", adjShape[0], xShape[1]))
	}

	batch, nodes, features := xShape[0], xShape[1], xShape[2]

	folded := x.Transpose(1, 0, 2).Reshape(nodes, batch*features)
	mixed := adj.MatMul(folded)
	return mixed.Reshape(nodes, batch, features).Transpose(1, 0, 2)
}

// NormalizeRows divides each row of a 2D tensor by its sum.
//
// Rows are expected to have a positive sum; use CheckRows first when the
// values may have been clamped to zero.
func NormalizeRows[B tensor.Backend](adj *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := adj.Backend()
	sums := tensor.New[float32, B](backend.SumDim(adj.Raw(), 1, true), backend) // [N, 1]
	return adj.Div(sums)
}

// CheckRows returns an *adjacency.ZeroRowError for the first row of adj
// without positive weight.
func CheckRows[B tensor.Backend](adj *tensor.Tensor[float32, B]) error {
	shape := adj.Shape()
	if len(shape) != 2 || shape[0] != shape[1] {
		return fmt.Errorf("%w: shape %v", adjacency.ErrNotSquare, shape)
	}
	return adjacency.CheckRowsFloat32(shape[0], adj.Data())
}

// matrixTensor converts a host-side seed matrix to a tensor.
func matrixTensor[B tensor.Backend](data []float32, n int, backend B) *tensor.Tensor[float32, B] {
	t, err := tensor.FromSlice(data, tensor.Shape{n, n}, backend)
	if err != nil {
		panic(fmt.Sprintf("matrixTensor: %v", err))
	}
	return t
}
