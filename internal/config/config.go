// Package config loads model options from YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/crossgcn/internal/adjacency"
	"github.com/born-ml/crossgcn/internal/gcn"
	"gopkg.in/yaml.v3"
)

// Model names accepted by the model key.
const (
	ModelGCN        = "gcn"
	ModelIntraInter = "intra-inter"
)

// ErrUnknownModel is returned for model names other than ModelGCN and
// ModelIntraInter.
var ErrUnknownModel = errors.New("unknown model")

// File is the on-disk configuration. Keys left out keep their default.
type File struct {
	// Model selects the architecture: "gcn" or "intra-inter".
	Model string `yaml:"model"`

	DimIn  int `yaml:"dim_in"`
	DimHid int `yaml:"dim_hid"`
	DimOut int `yaml:"dim_out"`

	Link1 float64 `yaml:"link1"`
	Link2 float64 `yaml:"link2"`
	Link3 float64 `yaml:"link3"`
	Link4 float64 `yaml:"link4"`
	Link5 float64 `yaml:"link5"`

	// Mask ablates one joint-graph link category (gcn only).
	Mask adjacency.Mask `yaml:"mask"`

	UseIntraGCN     bool `yaml:"use_intra_gcn"`
	UseInterGCN     bool `yaml:"use_inter_gcn"`
	UseRandomMatrix bool `yaml:"use_random_matrix"`
	UseAllOneMatrix bool `yaml:"use_all_one_matrix"`

	Dropout   float32 `yaml:"dropout"`
	Seed      uint64  `yaml:"seed"`
	WriteBack bool    `yaml:"write_back"`
}

// Default returns the configuration used when no file is given.
func Default() *File {
	base := gcn.DefaultConfig()
	return &File{
		Model:       ModelIntraInter,
		DimIn:       base.DimIn,
		DimHid:      base.DimHid,
		DimOut:      base.DimOut,
		Link1:       base.Links.Link1,
		Link2:       base.Links.Link2,
		Link3:       base.Links.Link3,
		Link4:       base.Links.Link4,
		Link5:       base.Links.Link5,
		Mask:        adjacency.MaskNone,
		UseIntraGCN: true,
		UseInterGCN: true,
		Dropout:     base.Dropout,
	}
}

// Load reads and validates the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*File, error) {
	f := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return f, nil
}

// Validate checks the model name and the options of the selected model.
func (f *File) Validate() error {
	switch f.Model {
	case ModelGCN:
		return f.GCN().Validate()
	case ModelIntraInter:
		cfg, err := f.IntraInter()
		if err != nil {
			return err
		}
		return cfg.Validate()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownModel, f.Model)
	}
}

// Links returns the configured link strengths.
func (f *File) Links() adjacency.Links {
	return adjacency.Links{
		Link1: f.Link1,
		Link2: f.Link2,
		Link3: f.Link3,
		Link4: f.Link4,
		Link5: f.Link5,
	}
}

func (f *File) base() gcn.Config {
	return gcn.Config{
		DimIn:   f.DimIn,
		DimHid:  f.DimHid,
		DimOut:  f.DimOut,
		Links:   f.Links(),
		Dropout: f.Dropout,
		Seed:    f.Seed,
	}
}

// GCN returns the options for gcn.NewGCN.
func (f *File) GCN() gcn.GCNConfig {
	return gcn.GCNConfig{Config: f.base(), Mask: f.Mask}
}

// IntraInter returns the options for gcn.NewIntraInterGCN. It fails when
// both use_random_matrix and use_all_one_matrix are set.
func (f *File) IntraInter() (gcn.IntraInterConfig, error) {
	init, err := gcn.ResolveInit(f.UseRandomMatrix, f.UseAllOneMatrix)
	if err != nil {
		return gcn.IntraInterConfig{}, err
	}
	return gcn.IntraInterConfig{
		Config:      f.base(),
		Init:        init,
		UseIntraGCN: f.UseIntraGCN,
		UseInterGCN: f.UseInterGCN,
		WriteBack:   f.WriteBack,
	}, nil
}
