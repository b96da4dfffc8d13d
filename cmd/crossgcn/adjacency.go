package main

import (
	"fmt"
	"io"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/tensor"
	"github.com/born-ml/crossgcn/internal/adjacency"
	"github.com/born-ml/crossgcn/internal/gcn"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

func newAdjacencyCmd(opts *options) *cobra.Command {
	var effective bool

	cmd := &cobra.Command{
		Use:   "adjacency",
		Short: "Print the adjacency matrices of a model",
		Long: `Print the adjacency matrices a freshly built model starts from.

With --effective the matrices used for propagation are printed instead:
the masked joint matrix for gcn, the clamped and row-normalised intra and
inter matrices for intra-inter.

Examples:
  crossgcn adjacency --model gcn
  crossgcn adjacency --model gcn --config ablate_link3.yaml --effective
  crossgcn adjacency --model intra-inter --effective`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAdjacency(cmd.OutOrStdout(), opts, effective)
		},
	}
	cmd.Flags().BoolVar(&effective, "effective", false, "print the matrices used for propagation")
	return cmd
}

func runAdjacency(w io.Writer, opts *options, effective bool) error {
	backend := autodiff.New(cpu.New())

	m, name, err := buildModel(opts.cfg, backend)
	if err != nil {
		return err
	}
	opts.logger.Debug("model built", "model", name, "effective", effective)

	switch m := m.(type) {
	case *gcn.GCN[Backend]:
		adj := m.AdjacencyParameter().Tensor()
		if effective {
			adj = m.Adjacency()
		}
		return printMatrix(w, fmt.Sprintf("joint (mask=%s)", m.Mask()), adj)

	case *gcn.IntraInterGCN[Backend]:
		intra, inter := m.IntraAdjacency().Tensor(), m.InterAdjacency().Tensor()
		if effective {
			intra, inter, err = m.EffectiveAdjacency()
			if err != nil {
				return err
			}
		}
		if err := printMatrix(w, fmt.Sprintf("intra (init=%s)", m.Config().Init), intra); err != nil {
			return err
		}
		return printMatrix(w, fmt.Sprintf("inter (init=%s)", m.Config().Init), inter)
	}
	return fmt.Errorf("unsupported model %T", m)
}

func printMatrix(w io.Writer, title string, t *tensor.Tensor[float32, Backend]) error {
	n := t.Shape()[0]
	dense := adjacency.FromFloat32s(n, t.Data())
	_, err := fmt.Fprintf(w, "%s:\n%.4f\n\n", title, mat.Formatted(dense, mat.Squeeze()))
	return err
}
