package gcn

import (
	"errors"
	"fmt"
	"strings"

	"github.com/born-ml/crossgcn/internal/adjacency"
)

var (
	// ErrInvalidConfig is wrapped by every configuration validation error.
	ErrInvalidConfig = errors.New("invalid gcn config")

	// ErrConflictingInit is returned when both the random and the all-ones
	// adjacency initialisations are requested.
	ErrConflictingInit = errors.New("random and all-ones adjacency init are mutually exclusive")

	// ErrUnknownInit is returned for unrecognised adjacency init names.
	ErrUnknownInit = errors.New("unknown adjacency init")
)

// AdjacencyInit selects how the Intra and Inter matrices are seeded.
type AdjacencyInit int

// Adjacency init modes.
const (
	// InitStructured seeds the matrices from the link strengths.
	InitStructured AdjacencyInit = iota
	// InitRandom draws every entry from U[0, 1).
	InitRandom
	// InitOnes fills every entry with 1.
	InitOnes
)

var initNames = [...]string{"structured", "random", "ones"}

func (a AdjacencyInit) String() string {
	if a < InitStructured || a > InitOnes {
		return fmt.Sprintf("AdjacencyInit(%d)", int(a))
	}
	return initNames[a]
}

// ParseInit converts a config name into an AdjacencyInit. The empty string
// means InitStructured.
func ParseInit(s string) (AdjacencyInit, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return InitStructured, nil
	}
	for i, n := range initNames {
		if n == name {
			return AdjacencyInit(i), nil
		}
	}
	return InitStructured, fmt.Errorf("%w: %q", ErrUnknownInit, s)
}

// MarshalText implements encoding.TextMarshaler.
func (a AdjacencyInit) MarshalText() ([]byte, error) {
	if a < InitStructured || a > InitOnes {
		return nil, fmt.Errorf("%w: %d", ErrUnknownInit, int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AdjacencyInit) UnmarshalText(text []byte) error {
	v, err := ParseInit(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ResolveInit maps the two legacy boolean switches onto an AdjacencyInit.
// Requesting both is an error rather than silently preferring random.
func ResolveInit(useRandomMatrix, useAllOneMatrix bool) (AdjacencyInit, error) {
	switch {
	case useRandomMatrix && useAllOneMatrix:
		return InitStructured, ErrConflictingInit
	case useRandomMatrix:
		return InitRandom, nil
	case useAllOneMatrix:
		return InitOnes, nil
	default:
		return InitStructured, nil
	}
}

// Config holds the options shared by GCN and IntraInterGCN.
type Config struct {
	DimIn  int // Input features per node (default: 64).
	DimHid int // Hidden features per node (default: 128).
	DimOut int // Output features per node (default: 64).

	Links adjacency.Links // Seed link strengths.

	// Dropout is the drop probability between the two stacked layers
	// (default: 0.5). Only applied in training mode.
	Dropout float32

	// Seed feeds the generator used for weight init, random adjacency and
	// dropout masks.
	Seed uint64
}

// DefaultConfig returns the reference dimensions 64→128→64 with the
// default link strengths.
func DefaultConfig() Config {
	return Config{
		DimIn:   64,
		DimHid:  128,
		DimOut:  64,
		Links:   adjacency.DefaultLinks(),
		Dropout: 0.5,
	}
}

// Validate checks dimensions and dropout rate.
func (c Config) Validate() error {
	if c.DimIn <= 0 || c.DimHid <= 0 || c.DimOut <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got in=%d hid=%d out=%d",
			ErrInvalidConfig, c.DimIn, c.DimHid, c.DimOut)
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return fmt.Errorf("%w: dropout must be in [0, 1), got %v", ErrInvalidConfig, c.Dropout)
	}
	return nil
}

// GCNConfig configures the single-graph GCN.
type GCNConfig struct {
	Config

	// Mask optionally ablates one link category of the joint adjacency.
	Mask adjacency.Mask
}

// DefaultGCNConfig returns DefaultConfig without a mask.
func DefaultGCNConfig() GCNConfig {
	return GCNConfig{Config: DefaultConfig()}
}

// Validate checks the shared options and the mask.
func (c GCNConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if !c.Mask.Valid() {
		return fmt.Errorf("%w: %w: %d", ErrInvalidConfig, adjacency.ErrUnknownMask, int(c.Mask))
	}
	return nil
}

// IntraInterConfig configures IntraInterGCN.
type IntraInterConfig struct {
	Config

	Init        AdjacencyInit
	UseIntraGCN bool // Run the shared two-layer stack on each domain.
	UseInterGCN bool // Run the cross-domain layer on the joint graph.

	// WriteBack stores the masked, clamped and normalised matrices back
	// into the adjacency parameters on every Forward and propagates with
	// the stored values, matching models trained with in-place updates.
	// Gradients then do not flow through the normalisation.
	WriteBack bool
}

// DefaultIntraInterConfig enables both stages with structured seeds.
func DefaultIntraInterConfig() IntraInterConfig {
	return IntraInterConfig{
		Config:      DefaultConfig(),
		Init:        InitStructured,
		UseIntraGCN: true,
		UseInterGCN: true,
	}
}

// Validate checks the shared options, the init mode, and that the stage
// selection produces consistent feature widths.
func (c IntraInterConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.Init < InitStructured || c.Init > InitOnes {
		return fmt.Errorf("%w: %w: %d", ErrInvalidConfig, ErrUnknownInit, int(c.Init))
	}
	if !c.UseIntraGCN && c.UseInterGCN && c.DimIn != c.DimOut {
		return fmt.Errorf("%w: inter stage without intra stage needs dim_in == dim_out, got %d and %d",
			ErrInvalidConfig, c.DimIn, c.DimOut)
	}
	return nil
}

// OutputDim returns the per-node width produced by Forward.
func (c IntraInterConfig) OutputDim() int {
	if !c.UseIntraGCN && !c.UseInterGCN {
		return c.DimIn
	}
	return c.DimOut
}
