// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the 4-D tensors graphnet layers operate on.
//
// # Overview
//
// Every tensor has exactly four axes, (batch, width, height, channels), and
// stores float64 values row-major:
//
//	offset = ((b*W + x)*H + y)*C + c
//
// # Basic Usage
//
//	import "github.com/born-ml/graphnet/tensor"
//
//	func main() {
//	    x := tensor.Ones(tensor.Shape{1, 4, 4, 2})
//	    x.Set(0, 1, 1, 0, 0.5)
//	    fmt.Println(x.Shape(), x.Sum())
//	}
//
// Shapes are plain arrays and compare with ==. Layers validate every tensor
// they receive against the shape they were bound to.
package tensor
