package network

import (
	"fmt"
	"io"
)

// Summary writes the layer-by-layer size trace, one line per layer in graph
// order, followed by the parameter count.
func (n *Network) Summary(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%4s %-14s %-20s %-22s       %s\n", "#", "layer", "detail", "input", "output"); err != nil {
		return err
	}
	for i, l := range n.layers {
		line := l.String()
		if preds := n.from[i]; len(preds) > 1 {
			line += fmt.Sprintf("   from %v", preds)
		}
		if _, err := fmt.Fprintf(w, "%4d %s\n", i, line); err != nil {
			return err
		}
	}
	params := 0
	for _, p := range n.parametric() {
		for _, t := range p.Parameters() {
			params += t.Len()
		}
	}
	_, err := fmt.Fprintf(w, "layers: %d  parameters: %d\n", len(n.layers), params)
	return err
}
