package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/crossgcn/internal/adjacency"
	"github.com/born-ml/crossgcn/internal/gcn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	f := Default()
	require.NoError(t, f.Validate())

	cfg, err := f.IntraInter()
	require.NoError(t, err)
	assert.Equal(t, gcn.DefaultIntraInterConfig(), cfg)
	assert.Equal(t, gcn.DefaultGCNConfig(), f.GCN())
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), f)
}

func TestParse_Overlay(t *testing.T) {
	data := []byte(`
model: gcn
dim_in: 32
dim_out: 16
link3: 0.7
mask: link3
dropout: 0.1
seed: 9
`)
	f, err := Parse(data)
	require.NoError(t, err)

	cfg := f.GCN()
	assert.Equal(t, 32, cfg.DimIn)
	assert.Equal(t, 128, cfg.DimHid, "unset keys keep defaults")
	assert.Equal(t, 16, cfg.DimOut)
	assert.InDelta(t, 0.7, cfg.Links.Link3, 1e-12)
	assert.InDelta(t, 0.8, cfg.Links.Link1, 1e-12)
	assert.Equal(t, adjacency.MaskLink3, cfg.Mask)
	assert.InDelta(t, 0.1, cfg.Dropout, 1e-7)
	assert.Equal(t, uint64(9), cfg.Seed)
}

func TestParse_IntraInterSwitches(t *testing.T) {
	f, err := Parse([]byte(`
use_inter_gcn: false
use_all_one_matrix: true
write_back: true
`))
	require.NoError(t, err)

	cfg, err := f.IntraInter()
	require.NoError(t, err)
	assert.True(t, cfg.UseIntraGCN)
	assert.False(t, cfg.UseInterGCN)
	assert.Equal(t, gcn.InitOnes, cfg.Init)
	assert.True(t, cfg.WriteBack)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"conflicting init", "use_random_matrix: true\nuse_all_one_matrix: true\n", gcn.ErrConflictingInit},
		{"unknown model", "model: gat\n", ErrUnknownModel},
		{"unknown mask", "model: gcn\nmask: link9\n", adjacency.ErrUnknownMask},
		{"bad dropout", "dropout: 1.5\n", gcn.ErrInvalidConfig},
		{"inter only width", "use_intra_gcn: false\ndim_out: 8\n", gcn.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := Parse([]byte("dim_inn: 3\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = Parse([]byte("dim_in: [1, 2]\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: gcn\nmask: link1\n"), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ModelGCN, f.Model)
	assert.Equal(t, adjacency.MaskLink1, f.Mask)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
