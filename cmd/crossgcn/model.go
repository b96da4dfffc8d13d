package main

import (
	"fmt"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/nn"
	"github.com/born-ml/crossgcn/internal/config"
	"github.com/born-ml/crossgcn/internal/gcn"
)

// Backend is the backend every command runs on.
type Backend = *autodiff.Backend[*cpu.Backend]

// model is the surface shared by both architectures.
type model interface {
	nn.Module[Backend]
	Train()
	Eval()
}

// buildModel constructs the architecture selected by cfg.Model.
func buildModel(cfg *config.File, backend Backend) (model, string, error) {
	switch cfg.Model {
	case config.ModelGCN:
		m, err := gcn.NewGCN(cfg.GCN(), backend)
		if err != nil {
			return nil, "", err
		}
		return m, "GCN", nil
	case config.ModelIntraInter:
		icfg, err := cfg.IntraInter()
		if err != nil {
			return nil, "", err
		}
		m, err := gcn.NewIntraInterGCN(icfg, backend)
		if err != nil {
			return nil, "", err
		}
		return m, "IntraInterGCN", nil
	default:
		return nil, "", fmt.Errorf("%w: %q", config.ErrUnknownModel, cfg.Model)
	}
}
