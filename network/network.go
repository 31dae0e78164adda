// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package network

import (
	"log/slog"
	"math/rand/v2"

	"github.com/born-ml/graphnet/internal/cfg"
	"github.com/born-ml/graphnet/internal/network"
	"github.com/born-ml/graphnet/internal/parallel"
)

// Network is an ordered, acyclic graph of bound layers.
type Network = network.Network

// Option configures a Network.
type Option = network.Option

// New creates a network. shape is empty or (width, height, channels).
func New(batch int, shape []int, opts ...Option) (*Network, error) {
	return network.New(batch, shape, opts...)
}

// WithLogger sets the logger used while building from configuration files.
func WithLogger(logger *slog.Logger) Option {
	return network.WithLogger(logger)
}

// WithWorkers bounds the goroutines convolution and pooling kernels use.
// 1 runs every kernel inline.
func WithWorkers(workers int) Option {
	cfg := parallel.DefaultConfig()
	cfg.Workers = workers
	return network.WithParallel(cfg)
}

// WithRand makes dropout masks reproducible.
func WithRand(rng *rand.Rand) Option {
	return network.WithRand(rng)
}

// LoadConfig builds a network from a .cfg or .yaml configuration and, when
// weightsPath is not empty, loads its weights.
func LoadConfig(cfgPath, weightsPath string, opts ...Option) (*Network, error) {
	file, err := cfg.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	n, err := network.FromConfig(file, opts...)
	if err != nil {
		return nil, err
	}
	if weightsPath != "" {
		if err := n.LoadWeights(weightsPath); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Open rebuilds a network from a model snapshot.
func Open(path string, opts ...Option) (*Network, error) {
	return network.Open(path, opts...)
}
