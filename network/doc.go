// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package network builds and runs dependency graphs of nn layers.
//
// # Basic Usage
//
//	net, err := network.New(1, []int{32, 32, 3})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = net.Add(&nn.ConvolutionalConfig{Filters: 8, Size: 3, Stride: 1, Pad: 1, Activation: nn.Leaky})
//	_ = net.Add(&nn.ConvolutionalConfig{Filters: 8, Size: 1, Stride: 1})
//	_ = net.Add(&nn.ShortcutConfig{Alpha: 1, Beta: 1}, -2) // last layer + layer 1
//	_ = net.Add(&nn.MaxpoolConfig{Size: 2, Stride: 2, Padding: -1})
//	out, err := net.Forward(x)
//
// # Configuration Files
//
// Load reads darknet-style .cfg files or their YAML equivalent:
//
//	net, err := network.LoadConfig("yolo-tiny.cfg", "yolo-tiny.weights")
//
// # Persistence
//
// SaveWeights/LoadWeights use the flat weight stream (version header plus
// float32 parameters in graph order). SaveModel/Open use a versioned snapshot
// that records the whole graph and can rebuild it without a configuration.
package network
