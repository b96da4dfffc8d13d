package adjacency

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Mask selects one link category of the joint graph to ablate.
type Mask int

// Mask values. MaskNone keeps every link.
const (
	MaskNone Mask = iota
	MaskLink1
	MaskLink2
	MaskLink3
	MaskLink4
	MaskLink5
)

var maskNames = [...]string{"none", "link1", "link2", "link3", "link4", "link5"}

// String returns the config name of the mask.
func (m Mask) String() string {
	if m < MaskNone || m > MaskLink5 {
		return fmt.Sprintf("Mask(%d)", int(m))
	}
	return maskNames[m]
}

// Valid reports whether m is one of the declared masks.
func (m Mask) Valid() bool {
	return m >= MaskNone && m <= MaskLink5
}

// ParseMask converts a config name into a Mask. The empty string means
// MaskNone.
func ParseMask(s string) (Mask, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return MaskNone, nil
	}
	for i, n := range maskNames {
		if n == name {
			return Mask(i), nil
		}
	}
	return MaskNone, fmt.Errorf("%w: %q", ErrUnknownMask, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mask) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMask, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mask) UnmarshalText(text []byte) error {
	parsed, err := ParseMask(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Matrix returns the 12×12 0/1 ablation matrix for m, or nil for
// MaskNone.
func (m Mask) Matrix() *mat.Dense {
	const n, h = JointNodes, DomainNodes
	var out *mat.Dense

	switch m {
	case MaskLink1:
		out = Ones(n)
		fillBlock(out, 0, 1, 1, h, 0)
		fillBlock(out, 1, h, 0, 1, 0)
		fillBlock(out, h, h+1, h+1, n, 0)
		fillBlock(out, h+1, n, h, h+1, 0)
	case MaskLink2:
		out = Ones(n)
		fillBlock(out, 1, h, 1, h, 0)
		fillBlock(out, h+1, n, h+1, n, 0)
		setDiagonal(out, 1)
	case MaskLink3:
		out = Ones(n)
		setCorresponding(out, 0)
	case MaskLink4:
		out = Ones(n)
		fillBlock(out, 0, 1, h+1, n, 0)
		fillBlock(out, h, h+1, 1, h, 0)
		fillBlock(out, 1, h, h, h+1, 0)
		fillBlock(out, h+1, n, 0, 1, 0)
	case MaskLink5:
		out = Ones(n)
		fillBlock(out, 1, h, h+1, n, 0)
		fillBlock(out, h+1, n, 1, h, 0)
	}
	return out
}

// ApplyMask returns the elementwise product of a and mask. A nil mask
// returns a copy of a.
func ApplyMask(a, mask mat.Matrix) *mat.Dense {
	out := mat.DenseCopyOf(a)
	if mask != nil {
		out.MulElem(out, mask)
	}
	return out
}
