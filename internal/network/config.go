package network

import (
	"fmt"
	"strings"

	"github.com/born-ml/graphnet/internal/cfg"
	"github.com/born-ml/graphnet/internal/nn"
	"github.com/born-ml/graphnet/internal/tensor"
)

// Header defaults used when the configuration omits them.
const (
	DefaultBatch    = 1
	DefaultWidth    = 416
	DefaultHeight   = 416
	DefaultChannels = 3
)

// FromConfig builds a network from a parsed configuration. The header section
// provides batch and input shape; every other section becomes one layer, plus
// a batchnorm layer when it sets batch_normalize.
func FromConfig(file *cfg.File, opts ...Option) (*Network, error) {
	shape, err := headerShape(file.Header())
	if err != nil {
		return nil, err
	}
	n, err := New(shape.Batch(), []int{shape.Width(), shape.Height(), shape.Channels()}, opts...)
	if err != nil {
		return nil, err
	}
	n.logger.Info("network input", "batch", shape.Batch(), "shape", n.layers[0].String())

	for _, sec := range file.Layers() {
		if err := n.addSection(sec); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Load replaces the graph with the one described by the configuration at
// cfgPath and, when weightsPath is not empty, loads its weights. On error the
// network keeps its previous graph.
func (n *Network) Load(cfgPath, weightsPath string) error {
	file, err := cfg.Load(cfgPath)
	if err != nil {
		return err
	}
	built, err := FromConfig(file, n.options()...)
	if err != nil {
		return fmt.Errorf("%s: %w", cfgPath, err)
	}
	if weightsPath != "" {
		if err := built.LoadWeights(weightsPath); err != nil {
			return err
		}
	}
	n.replace(built)
	return nil
}

func headerShape(h *cfg.Section) (tensor.Shape, error) {
	shape := tensor.Shape{DefaultBatch, DefaultWidth, DefaultHeight, DefaultChannels}
	if h == nil {
		return shape, nil
	}
	for i, key := range []string{"batch", "width", "height", "channels"} {
		v, err := h.Int(key, shape[i])
		if err != nil {
			return shape, err
		}
		shape[i] = v
	}
	if err := shape.Validate(); err != nil {
		return shape, &nn.ValueError{Layer: h.Name, Param: "input_shape", Value: shape, Want: "4 positive dimensions"}
	}
	return shape, nil
}

// addSection appends the layer described by sec, and its implicit batchnorm.
func (n *Network) addSection(sec *cfg.Section) error {
	c, err := sectionConfig(sec)
	if err != nil {
		return err
	}
	from, err := sectionFrom(sec, c.Kind())
	if err != nil {
		return err
	}
	if err := n.Add(c, from...); err != nil {
		return fmt.Errorf("%s: %w", sec.Name, err)
	}
	n.logAdded(sec)

	bn, err := sec.Bool("batch_normalize", false)
	if err != nil {
		return err
	}
	if bn {
		if err := n.Add(&nn.BatchNormConfig{}); err != nil {
			return fmt.Errorf("%s: %w", sec.Name, err)
		}
		n.logAdded(sec)
	}
	return nil
}

func (n *Network) logAdded(sec *cfg.Section) {
	i := len(n.layers) - 1
	n.logger.Info("layer added", "index", i, "section", sec.Name, "layer", n.layers[i].String())
}

// sectionFrom reads the topology keys: layers for route, from for shortcut.
func sectionFrom(sec *cfg.Section, kind nn.Kind) ([]int, error) {
	switch kind {
	case nn.KindRoute:
		if !sec.Has("layers") {
			return nil, &nn.LayerError{Layer: sec.Name, Reason: "route requires layers"}
		}
		return sec.Ints("layers", nil)
	case nn.KindShortcut:
		if !sec.Has("from") {
			return nil, &nn.LayerError{Layer: sec.Name, Reason: "shortcut requires from"}
		}
		from, err := sec.Int("from", 0)
		if err != nil {
			return nil, err
		}
		return []int{-1, from}, nil
	default:
		return nil, nil
	}
}

// sectionConfig maps a section onto the Config of its layer kind.
//
//nolint:gocyclo,cyclop // one case per layer kind
func sectionConfig(sec *cfg.Section) (nn.Config, error) {
	kind, err := nn.ParseKind(sec.Type())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sec.Name, err)
	}
	c, err := nn.NewConfig(kind)
	if err != nil {
		return nil, err
	}

	switch c := c.(type) {
	case *nn.InputConfig:
		return nil, &nn.LayerError{Layer: sec.Name, Reason: "input is only allowed as the first layer"}
	case *nn.ActivationConfig:
		c.Function, err = activation(sec, c.Function)
	case *nn.LogisticConfig, *nn.BatchNormConfig, *nn.RouteConfig:
	case *nn.L1NormConfig:
		c.Axis, err = axis(sec)
	case *nn.L2NormConfig:
		c.Axis, err = axis(sec)
	case *nn.DropoutConfig:
		if c.Probability, err = sec.Float("prob", c.Probability); err == nil {
			c.Probability, err = sec.Float("probability", c.Probability)
		}
	case *nn.ConnectedConfig:
		if c.Outputs, err = sec.Int("output", c.Outputs); err == nil {
			c.Activation, err = activation(sec, c.Activation)
		}
	case *nn.ConvolutionalConfig:
		err = convolutional(sec, c)
	case *nn.MaxpoolConfig:
		if c.Size, err = sec.Int("size", c.Size); err != nil {
			break
		}
		if c.Stride, err = sec.Int("stride", c.Size); err != nil {
			break
		}
		c.Padding, err = sec.Int("padding", c.Padding)
	case *nn.AvgpoolConfig:
		if c.Size, err = sec.Int("size", c.Size); err == nil {
			c.Stride, err = sec.Int("stride", c.Size)
		}
	case *nn.UpsampleConfig:
		if c.Stride, err = sec.Int("stride", c.Stride); err == nil {
			c.Scale, err = sec.Float("scale", c.Scale)
		}
	case *nn.ShortcutConfig:
		if c.Alpha, err = sec.Float("alpha", c.Alpha); err == nil {
			c.Beta, err = sec.Float("beta", c.Beta)
		}
	case *nn.SoftmaxConfig:
		c.Temperature, err = sec.Float("temperature", c.Temperature)
	case *nn.ShufflerConfig:
		c.Scale, err = sec.Int("scale", c.Scale)
	default:
		return nil, &nn.LayerError{Layer: sec.Name, Reason: "no configuration mapping for " + kind.String()}
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func convolutional(sec *cfg.Section, c *nn.ConvolutionalConfig) error {
	var err error
	if c.Filters, err = sec.Int("filters", c.Filters); err != nil {
		return err
	}
	if c.Size, err = sec.Int("size", c.Size); err != nil {
		return err
	}
	if c.Stride, err = sec.Int("stride", c.Stride); err != nil {
		return err
	}
	pad, err := sec.Bool("pad", false)
	if err != nil {
		return err
	}
	if pad {
		c.Pad = c.Size / 2
	}
	if c.Pad, err = sec.Int("padding", c.Pad); err != nil {
		return err
	}
	c.Activation, err = activation(sec, c.Activation)
	return err
}

func activation(sec *cfg.Section, def nn.Activation) (nn.Activation, error) {
	name, err := sec.String("activation", def.String())
	if err != nil {
		return def, err
	}
	a, err := nn.ParseActivation(strings.ToLower(name))
	if err != nil {
		return def, fmt.Errorf("%s: %w", sec.Name, err)
	}
	return a, nil
}

// axis reads an array axis. Negative values count from the last axis
// (-1 is channels); "all", "none" or no key selects the whole tensor (nil).
func axis(sec *cfg.Section) (*int, error) {
	p, ok := sec.Get("axis")
	if !ok {
		return nil, nil
	}
	if s, ok := p.Value.Str(); ok {
		switch strings.ToLower(s) {
		case "all", "none":
			return nil, nil
		}
		return nil, &cfg.DataVariableError{Section: sec.Name, Key: "axis", Value: s, Line: p.Line, Reason: "expected an axis index, all or none"}
	}
	a, err := sec.Int("axis", 0)
	if err != nil {
		return nil, err
	}
	if a < 0 {
		a += 4
	}
	if a < 0 || a > tensor.AxisChannels {
		return nil, &nn.ValueError{Layer: sec.Name, Param: "axis", Value: a, Want: "within -4..3"}
	}
	return nn.AlongAxis(a), nil
}
