// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/graphnet/internal/cfg"
	"github.com/born-ml/graphnet/internal/nn"
)

// Layer is the contract every graph node implements.
type Layer = nn.Layer

// Config holds the constructor parameters of one layer kind.
type Config = nn.Config

// Parametric is implemented by layers with trainable parameters.
type Parametric = nn.Parametric

// Parameter is a trainable parameter with its gradient accumulator.
type Parameter = nn.Parameter

// Kind identifies a layer type.
type Kind = nn.Kind

// Layer kinds.
const (
	KindInput         = nn.KindInput
	KindActivation    = nn.KindActivation
	KindLogistic      = nn.KindLogistic
	KindL1Norm        = nn.KindL1Norm
	KindL2Norm        = nn.KindL2Norm
	KindDropout       = nn.KindDropout
	KindBatchNorm     = nn.KindBatchNorm
	KindConnected     = nn.KindConnected
	KindConvolutional = nn.KindConvolutional
	KindMaxpool       = nn.KindMaxpool
	KindAvgpool       = nn.KindAvgpool
	KindUpsample      = nn.KindUpsample
	KindRoute         = nn.KindRoute
	KindShortcut      = nn.KindShortcut
	KindSoftmax       = nn.KindSoftmax
	KindShuffler      = nn.KindShuffler
)

// AllAxes selects the whole tensor for axis-aware layers.
const AllAxes = nn.AllAxes

// AlongAxis returns an axis setting for L1NormConfig and L2NormConfig. A nil
// setting normalizes the whole tensor.
func AlongAxis(axis int) *int { return nn.AlongAxis(axis) }

// ParseKind maps a configuration type key such as "convolutional" to its Kind.
func ParseKind(key string) (Kind, error) {
	return nn.ParseKind(key)
}

// NewConfig returns the default configuration for kind.
func NewConfig(kind Kind) (Config, error) {
	return nn.NewConfig(kind)
}

// Activation is an elementwise nonlinearity.
type Activation = nn.Activation

// Activations.
const (
	Linear   = nn.Linear
	ReLU     = nn.ReLU
	Leaky    = nn.Leaky
	Logistic = nn.Logistic
	Tanh     = nn.Tanh
	ELU      = nn.ELU
	Relie    = nn.Relie
)

// ParseActivation maps a configuration name to an Activation.
func ParseActivation(name string) (Activation, error) {
	return nn.ParseActivation(name)
}

// Configurations

type (
	InputConfig         = nn.InputConfig
	ActivationConfig    = nn.ActivationConfig
	LogisticConfig      = nn.LogisticConfig
	L1NormConfig        = nn.L1NormConfig
	L2NormConfig        = nn.L2NormConfig
	DropoutConfig       = nn.DropoutConfig
	BatchNormConfig     = nn.BatchNormConfig
	ConnectedConfig     = nn.ConnectedConfig
	ConvolutionalConfig = nn.ConvolutionalConfig
	MaxpoolConfig       = nn.MaxpoolConfig
	AvgpoolConfig       = nn.AvgpoolConfig
	UpsampleConfig      = nn.UpsampleConfig
	RouteConfig         = nn.RouteConfig
	ShortcutConfig      = nn.ShortcutConfig
	SoftmaxConfig       = nn.SoftmaxConfig
	ShufflerConfig      = nn.ShufflerConfig
)

// Bound layers

type (
	Input           = nn.Input
	ActivationLayer = nn.ActivationLayer
	L1Norm          = nn.L1Norm
	L2Norm          = nn.L2Norm
	Dropout         = nn.Dropout
	BatchNorm       = nn.BatchNorm
	Connected       = nn.Connected
	Convolutional   = nn.Convolutional
	Maxpool         = nn.Maxpool
	Avgpool         = nn.Avgpool
	Upsample        = nn.Upsample
	Route           = nn.Route
	Shortcut        = nn.Shortcut
	Softmax         = nn.Softmax
)

// Errors

type (
	ShapeMismatchError = nn.ShapeMismatchError
	LayerError         = nn.LayerError
	NotFittedError     = nn.NotFittedError
	ValueError         = nn.ValueError
	DataVariableError  = cfg.DataVariableError
)

// Sentinel errors matched by the typed errors above.
var (
	ErrShapeMismatch = nn.ErrShapeMismatch
	ErrLayer         = nn.ErrLayer
	ErrNotFitted     = nn.ErrNotFitted
	ErrValue         = nn.ErrValue
	ErrDataVariable  = cfg.ErrDataVariable
)
