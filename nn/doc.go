// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layers of the graphnet execution engine.
//
// # Overview
//
// Every layer implements the same contract (Layer): Forward validates its
// input shape, computes Output and resets Delta; Backward adds the layer's
// gradient contribution into the delta buffers of its predecessors.
//
// Layers are built in two phases. A Config carries the parameters of one
// layer kind and Bind fixes the input shapes:
//
//	cfg := &nn.ConvolutionalConfig{Filters: 16, Size: 3, Stride: 1, Pad: 1, Activation: nn.Leaky}
//	layer, err := cfg.Bind(tensor.Shape{1, 32, 32, 3})
//
// Networks normally do the binding (see package network).
//
// # Layers
//
//	input          root placeholder stamping (batch, width, height, channels)
//	activation     elementwise activation (linear, relu, leaky, logistic, tanh, elu, relie)
//	logistic       activation fixed to logistic
//	l1norm, l2norm normalization along an axis
//	dropout        random dropout with 1/(1-p) rescaling
//	batchnorm      parameter-free per-channel normalization
//	connected      fully connected layer (Parametric)
//	convolutional  2-D convolution (Parametric)
//	maxpool        max pooling
//	avgpool        average pooling, global when Size is 0
//	upsample       nearest-neighbour up/down sampling
//	route          channel concatenation of several earlier layers
//	shortcut       weighted sum of two earlier layers
//	softmax        per-pixel softmax over channels
//	shuffler       depth-to-space pixel shuffle
//
// # Errors
//
// Failures are typed and match sentinels through errors.Is:
// ShapeMismatchError (ErrShapeMismatch), LayerError (ErrLayer),
// NotFittedError (ErrNotFitted), ValueError (ErrValue) and
// DataVariableError (ErrDataVariable).
package nn
