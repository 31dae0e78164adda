package nn

// Kind enumerates the supported layer types.
type Kind uint8

// Layer kinds. The zero value is invalid.
const (
	KindInput Kind = iota + 1
	KindActivation
	KindLogistic
	KindL1Norm
	KindL2Norm
	KindDropout
	KindBatchNorm
	KindConnected
	KindConvolutional
	KindMaxpool
	KindAvgpool
	KindUpsample
	KindRoute
	KindShortcut
	KindSoftmax
	KindShuffler
)

// Kinds lists every supported kind in declaration order.
var Kinds = []Kind{
	KindInput, KindActivation, KindLogistic, KindL1Norm, KindL2Norm, KindDropout,
	KindBatchNorm, KindConnected, KindConvolutional, KindMaxpool, KindAvgpool,
	KindUpsample, KindRoute, KindShortcut, KindSoftmax, KindShuffler,
}

// String returns the configuration type key of the kind.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindActivation:
		return "activation"
	case KindLogistic:
		return "logistic"
	case KindL1Norm:
		return "l1norm"
	case KindL2Norm:
		return "l2norm"
	case KindDropout:
		return "dropout"
	case KindBatchNorm:
		return "batchnorm"
	case KindConnected:
		return "connected"
	case KindConvolutional:
		return "convolutional"
	case KindMaxpool:
		return "maxpool"
	case KindAvgpool:
		return "avgpool"
	case KindUpsample:
		return "upsample"
	case KindRoute:
		return "route"
	case KindShortcut:
		return "shortcut"
	case KindSoftmax:
		return "softmax"
	case KindShuffler:
		return "shuffler"
	default:
		return "unknown"
	}
}

// ParseKind maps a configuration type key to its Kind.
func ParseKind(key string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == key {
			return k, nil
		}
	}
	return 0, &LayerError{Layer: key, Reason: "unrecognized layer type"}
}

// NewConfig returns the default configuration for kind. Callers fill the
// kind-specific fields before binding.
func NewConfig(kind Kind) (Config, error) {
	switch kind {
	case KindInput:
		return &InputConfig{}, nil
	case KindActivation:
		return &ActivationConfig{Function: Linear}, nil
	case KindLogistic:
		return &LogisticConfig{}, nil
	case KindL1Norm:
		return &L1NormConfig{}, nil
	case KindL2Norm:
		return &L2NormConfig{}, nil
	case KindDropout:
		return &DropoutConfig{Probability: 0.5}, nil
	case KindBatchNorm:
		return &BatchNormConfig{}, nil
	case KindConnected:
		return &ConnectedConfig{Activation: Linear}, nil
	case KindConvolutional:
		return &ConvolutionalConfig{Filters: 1, Size: 1, Stride: 1, Activation: Linear}, nil
	case KindMaxpool:
		return &MaxpoolConfig{Size: 2, Stride: 2, Padding: -1}, nil
	case KindAvgpool:
		return &AvgpoolConfig{}, nil
	case KindUpsample:
		return &UpsampleConfig{Stride: 2, Scale: 1}, nil
	case KindRoute:
		return &RouteConfig{}, nil
	case KindShortcut:
		return &ShortcutConfig{Alpha: 1, Beta: 1}, nil
	case KindSoftmax:
		return &SoftmaxConfig{Temperature: 1}, nil
	case KindShuffler:
		return &ShufflerConfig{Scale: 2}, nil
	default:
		return nil, &LayerError{Layer: kind.String(), Reason: "unrecognized layer kind"}
	}
}
