package network

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/born-ml/graphnet/internal/nn"
	"github.com/born-ml/graphnet/internal/serialization"
	"github.com/born-ml/graphnet/internal/tensor"
	"github.com/born-ml/graphnet/internal/weights"
)

// SaveWeights writes every parametric layer's parameters to path as a flat
// weight stream.
func (n *Network) SaveWeights(path string) error {
	return weights.Save(path, n.parametric())
}

// LoadWeights reads a weight stream written for the same topology.
func (n *Network) LoadWeights(path string) error {
	v, err := weights.Load(path, n.parametric())
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	n.logger.Debug("weights loaded", "path", path, "version", v.String())
	return nil
}

// WriteWeights writes the weight stream to w.
func (n *Network) WriteWeights(w io.Writer) error {
	return weights.Write(w, n.parametric())
}

// ReadWeights reads a weight stream from r.
func (n *Network) ReadWeights(r io.Reader) error {
	_, err := weights.Read(r, n.parametric())
	return err
}

// tensorName names parameter p of layer i in snapshots.
func tensorName(i int, p *nn.Parameter) string {
	return fmt.Sprintf("layer.%d.%s", i, p.Name())
}

// Snapshot describes the graph as a snapshot header plus parameter data.
func (n *Network) Snapshot() (serialization.Header, map[string][]float64, error) {
	h := serialization.Header{Batch: n.batch, Layers: make([]serialization.LayerRecord, len(n.layers))}
	if len(n.layers) > 0 {
		h.InputShape = n.layers[0].InputShape()
	}
	data := make(map[string][]float64)

	for i, l := range n.layers {
		cfgJSON, err := json.Marshal(l.Config())
		if err != nil {
			return h, nil, fmt.Errorf("layer %d: failed to encode config: %w", i, err)
		}
		rec := serialization.LayerRecord{
			Index:       i,
			Kind:        l.Kind().String(),
			From:        n.Predecessors(i),
			InputShape:  l.InputShape(),
			OutputShape: l.OutShape(),
			Config:      cfgJSON,
		}
		if p, ok := l.(nn.Parametric); ok {
			for _, param := range p.Parameters() {
				name := tensorName(i, param)
				rec.Tensors = append(rec.Tensors, serialization.TensorMeta{Name: name, Shape: param.Shape()})
				data[name] = param.Values()
			}
		}
		h.Layers[i] = rec
	}
	return h, data, nil
}

// WriteModel writes a full snapshot of the graph to w.
func (n *Network) WriteModel(w io.Writer) error {
	h, data, err := n.Snapshot()
	if err != nil {
		return err
	}
	return serialization.Write(w, h, data)
}

// SaveModel writes a full snapshot of the graph to path.
func (n *Network) SaveModel(path string) error {
	h, data, err := n.Snapshot()
	if err != nil {
		return err
	}
	return serialization.WriteFile(path, h, data)
}

// ReadModel replaces the graph with the snapshot read from r.
func (n *Network) ReadModel(r io.Reader) error {
	snap, err := serialization.Read(r, serialization.ReaderOptions{})
	if err != nil {
		return err
	}
	built, err := FromSnapshot(snap, n.options()...)
	if err != nil {
		return err
	}
	n.replace(built)
	return nil
}

// LoadModel replaces the graph with the snapshot stored at path.
func (n *Network) LoadModel(path string) error {
	built, err := Open(path, n.options()...)
	if err != nil {
		return err
	}
	n.replace(built)
	return nil
}

// Open builds a network from the snapshot stored at path.
func Open(path string, opts ...Option) (*Network, error) {
	snap, err := serialization.ReadFile(path, serialization.ReaderOptions{})
	if err != nil {
		return nil, err
	}
	n, err := FromSnapshot(snap, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// FromSnapshot rebuilds a graph through Add, checks every bound shape
// against the record and then copies the parameters.
func FromSnapshot(snap *serialization.Snapshot, opts ...Option) (*Network, error) {
	h := snap.Header
	n, err := New(h.Batch, nil, opts...)
	if err != nil {
		return nil, err
	}

	for i, rec := range h.Layers {
		kind, err := nn.ParseKind(rec.Kind)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		c, err := nn.NewConfig(kind)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(rec.Config, c); err != nil {
			return nil, fmt.Errorf("layer %d: failed to decode %s config: %w", i, kind, err)
		}
		if err := n.Add(c, rec.From...); err != nil {
			return nil, err
		}

		l := n.layers[i]
		if got := l.OutShape(); got != tensor.Shape(rec.OutputShape) {
			return nil, &nn.ShapeMismatchError{Layer: kind.String(), Op: "restore", Want: rec.OutputShape, Got: got}
		}
		if err := restoreParams(i, l, rec, snap.Data); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func restoreParams(i int, l nn.Layer, rec serialization.LayerRecord, data map[string][]float64) error {
	var params []*nn.Parameter
	if p, ok := l.(nn.Parametric); ok {
		params = p.Parameters()
	}
	if len(params) != len(rec.Tensors) {
		return &nn.LayerError{Layer: l.Kind().String(),
			Reason: fmt.Sprintf("layer %d: snapshot has %d tensors, layer has %d parameters", i, len(rec.Tensors), len(params))}
	}
	for j, p := range params {
		meta := rec.Tensors[j]
		if meta.Name != tensorName(i, p) {
			return &nn.LayerError{Layer: l.Kind().String(), Reason: fmt.Sprintf("layer %d: unexpected tensor %q", i, meta.Name)}
		}
		if err := p.Set(data[meta.Name]); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}
