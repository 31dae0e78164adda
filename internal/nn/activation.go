package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/graphnet/internal/tensor"
)

// Activation is an elementwise nonlinearity.
type Activation uint8

// Supported activations.
const (
	Linear Activation = iota
	ReLU
	Leaky
	Logistic
	Tanh
	ELU
	Relie
)

// String returns the configuration name of the activation.
func (a Activation) String() string {
	switch a {
	case Linear:
		return "linear"
	case ReLU:
		return "relu"
	case Leaky:
		return "leaky"
	case Logistic:
		return "logistic"
	case Tanh:
		return "tanh"
	case ELU:
		return "elu"
	case Relie:
		return "relie"
	default:
		return "unknown"
	}
}

// ParseActivation maps a configuration name to an Activation.
func ParseActivation(name string) (Activation, error) {
	for a := Linear; a <= Relie; a++ {
		if a.String() == name {
			return a, nil
		}
	}
	return 0, &ValueError{Layer: "activation", Param: "activation", Value: name,
		Want: "one of linear, relu, leaky, logistic, tanh, elu, relie"}
}

// MarshalText implements encoding.TextMarshaler.
func (a Activation) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Activation) UnmarshalText(text []byte) error {
	v, err := ParseActivation(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Apply evaluates the activation at x.
func (a Activation) Apply(x float64) float64 {
	switch a {
	case ReLU:
		return math.Max(x, 0)
	case Leaky:
		if x > 0 {
			return x
		}
		return 0.1 * x
	case Logistic:
		return 1 / (1 + math.Exp(-x))
	case Tanh:
		return math.Tanh(x)
	case ELU:
		if x >= 0 {
			return x
		}
		return math.Exp(x) - 1
	case Relie:
		if x > 0 {
			return x
		}
		return 0.01 * x
	default:
		return x
	}
}

// Gradient returns the derivative expressed in terms of the activated output y.
func (a Activation) Gradient(y float64) float64 {
	switch a {
	case ReLU:
		if y > 0 {
			return 1
		}
		return 0
	case Leaky:
		if y > 0 {
			return 1
		}
		return 0.1
	case Logistic:
		return (1 - y) * y
	case Tanh:
		return 1 - y*y
	case ELU:
		if y >= 0 {
			return 1
		}
		return y + 1
	case Relie:
		if y > 0 {
			return 1
		}
		return 0.01
	default:
		return 1
	}
}

// activate applies a in place.
func activate(a Activation, data []float64) {
	if a == Linear {
		return
	}
	for i, v := range data {
		data[i] = a.Apply(v)
	}
}

// gradientInto writes delta * f'(output) into dst.
func gradientInto(a Activation, dst, delta, output []float64) {
	for i := range dst {
		dst[i] = delta[i] * a.Gradient(output[i])
	}
}

// ActivationConfig configures a standalone activation layer.
type ActivationConfig struct {
	Function Activation `json:"activation"`
}

// Kind implements Config.
func (c *ActivationConfig) Kind() Kind { return KindActivation }

// Bind implements Config.
func (c *ActivationConfig) Bind(inputs ...tensor.Shape) (Layer, error) {
	in, err := bindSingle(KindActivation, inputs)
	if err != nil {
		return nil, err
	}
	return &ActivationLayer{base: base{kind: KindActivation, inShape: in, outShape: in}, fn: c.Function}, nil
}

// LogisticConfig configures an activation layer fixed to the logistic function.
type LogisticConfig struct{}

// Kind implements Config.
func (c *LogisticConfig) Kind() Kind { return KindLogistic }

// Bind implements Config.
func (c *LogisticConfig) Bind(inputs ...tensor.Shape) (Layer, error) {
	in, err := bindSingle(KindLogistic, inputs)
	if err != nil {
		return nil, err
	}
	return &ActivationLayer{base: base{kind: KindLogistic, inShape: in, outShape: in}, fn: Logistic}, nil
}

// ActivationLayer applies an elementwise activation.
type ActivationLayer struct {
	base
	fn Activation
}

// Function returns the activation applied by the layer.
func (l *ActivationLayer) Function() Activation { return l.fn }

// Config implements Layer.
func (l *ActivationLayer) Config() Config {
	if l.kind == KindLogistic {
		return &LogisticConfig{}
	}
	return &ActivationConfig{Function: l.fn}
}

// Forward implements Layer.
func (l *ActivationLayer) Forward(inputs ...*tensor.Tensor) error {
	in, err := l.single("forward", inputs)
	if err != nil {
		return err
	}
	l.reset()
	out := l.output.Data()
	copy(out, in.Data())
	activate(l.fn, out)
	return nil
}

// Backward implements Layer: upstream += delta * f'(output).
func (l *ActivationLayer) Backward(upstream ...*tensor.Tensor) error {
	up, err := l.backwardSingle(upstream)
	if err != nil {
		return err
	}
	dst, delta, out := up.Data(), l.delta.Data(), l.output.Data()
	for i := range dst {
		dst[i] += delta[i] * l.fn.Gradient(out[i])
	}
	return nil
}

func (l *ActivationLayer) String() string {
	return fmt.Sprintf("%-14s %-20s %s   ->  %s", l.name(), l.fn, l.inShape, l.outShape)
}
