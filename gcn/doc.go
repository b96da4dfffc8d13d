// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package gcn provides graph convolution models for cross-domain feature
// fusion over a 12-node joint graph.
//
// # Overview
//
// The graph has two domains of 6 nodes each: source nodes 0..5 and target
// nodes 6..11. Node i of one domain corresponds to node i of the other.
// Edges fall into five link categories:
//
//   - link1: within a domain, between node 0 and the other nodes
//   - link2: within a domain, between two non-zero nodes
//   - link3: across domains, between corresponding nodes
//   - link4: across domains, between node 0 and a non-corresponding node
//   - link5: across domains, between two non-zero, non-corresponding nodes
//
// This package contains:
//   - Layers: GraphConvolution, Dropout
//   - Models: GCN (single joint graph), IntraInterGCN (within-domain stack
//     followed by a cross-domain layer)
//   - Adjacency seeds: Joint, Intra, Inter, InterMask, ablation masks
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/born/autodiff"
//	    "github.com/born-ml/born/backend/cpu"
//	    "github.com/born-ml/crossgcn/gcn"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//
//	    model, err := gcn.NewIntraInterGCN(gcn.DefaultIntraInterConfig(), backend)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // [batch, 12, 64] -> [batch, 12, 64]
//	    output := model.Forward(input)
//	}
//
// # Adjacency
//
// GCN propagates over its learnable joint matrix as-is, optionally with one
// link category masked out:
//
//	cfg := gcn.DefaultGCNConfig()
//	cfg.Mask = gcn.MaskLink3
//
// IntraInterGCN derives the matrices it propagates over from its learnable
// parameters on every Forward: the inter matrix is masked to cross-domain
// edges and the diagonal, negatives are clamped to zero and every row is
// normalised to sum to one. Set WriteBack to store those values into the
// parameters instead.
//
// # Checkpoints
//
// All models implement nn.Module and can be saved with nn.Save:
//
//	nn.Save(model, "model.born", "IntraInterGCN", nil)
package gcn
