package adjacency

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrUnknownMask is returned for mask names outside none/link1..link5.
	ErrUnknownMask = errors.New("unknown adjacency mask")

	// ErrZeroRowSum is returned when a row has no positive weight left
	// after masking and clamping, so it cannot be normalized.
	ErrZeroRowSum = errors.New("adjacency row sums to zero")

	// ErrNotSquare is returned for non-square adjacency matrices.
	ErrNotSquare = errors.New("adjacency matrix is not square")
)

// ZeroRowError reports the first row that cannot be normalized.
type ZeroRowError struct {
	Row int
}

// Error implements the error interface.
func (e *ZeroRowError) Error() string {
	return fmt.Sprintf("%v: row %d", ErrZeroRowSum, e.Row)
}

// Unwrap returns ErrZeroRowSum.
func (e *ZeroRowError) Unwrap() error {
	return ErrZeroRowSum
}

// CheckRows returns a *ZeroRowError for the first row of m whose clamped
// sum is not positive.
func CheckRows(m mat.Matrix) error {
	r, c := m.Dims()
	if r != c {
		return fmt.Errorf("%w: %dx%d", ErrNotSquare, r, c)
	}
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, m)
		if clampedSum(row) <= 0 {
			return &ZeroRowError{Row: i}
		}
	}
	return nil
}

// CheckRowsFloat32 is CheckRows over a row-major n×n float32 slice.
func CheckRowsFloat32(n int, data []float32) error {
	if len(data) != n*n {
		return fmt.Errorf("%w: %d values for %d rows", ErrNotSquare, len(data), n)
	}
	for i := 0; i < n; i++ {
		var sum float32
		for _, v := range data[i*n : (i+1)*n] {
			if v > 0 {
				sum += v
			}
		}
		if sum <= 0 {
			return &ZeroRowError{Row: i}
		}
	}
	return nil
}

// NormalizeRows clamps negative entries to zero and scales every row to
// sum to one. m is left untouched.
func NormalizeRows(m mat.Matrix) (*mat.Dense, error) {
	if err := CheckRows(m); err != nil {
		return nil, err
	}
	out := mat.DenseCopyOf(m)
	ClampNegative(out)
	r, _ := out.Dims()
	for i := 0; i < r; i++ {
		row := out.RawRowView(i)
		floats.Scale(1/floats.Sum(row), row)
	}
	return out, nil
}

// ClampNegative sets every negative entry of m to zero in place.
func ClampNegative(m *mat.Dense) {
	m.Apply(func(_, _ int, v float64) float64 {
		return max(v, 0)
	}, m)
}

func clampedSum(row []float64) float64 {
	var sum float64
	for _, v := range row {
		if v > 0 {
			sum += v
		}
	}
	return sum
}
