// Package main provides the graphnet CLI.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/born-ml/graphnet/network"
	"github.com/born-ml/graphnet/tensor"
)

const version = "v0.1.0-dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "graphnet:", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "graphnet - dependency-graph neural network engine")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  summary    Print the layer trace of a network")
	fmt.Fprintln(w, "  forward    Run one forward pass on a constant input")
	fmt.Fprintln(w, "  snapshot   Convert a configuration (+ weights) into a model snapshot")
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stdout)
		return nil
	}
	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "graphnet %s\n", version)
		return nil
	case "summary":
		return summary(args[1:], stdout, stderr)
	case "forward":
		return forward(args[1:], stdout, stderr)
	case "snapshot":
		return snapshot(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		usage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// source selects where a network comes from: a configuration or a snapshot.
type source struct {
	cfg     string
	weights string
	model   string
	verbose bool
}

func (s *source) register(fs *flag.FlagSet) {
	fs.StringVar(&s.cfg, "cfg", "", "network configuration (.cfg, .yaml)")
	fs.StringVar(&s.weights, "weights", "", "weight stream to load with -cfg")
	fs.StringVar(&s.model, "model", "", "model snapshot (instead of -cfg)")
	fs.BoolVar(&s.verbose, "v", false, "log every layer while building")
}

func (s *source) open(stderr io.Writer) (*network.Network, error) {
	level := slog.LevelWarn
	if s.verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	switch {
	case s.model != "" && s.cfg != "":
		return nil, errors.New("use either -cfg or -model")
	case s.model != "":
		return network.Open(s.model, network.WithLogger(logger))
	case s.cfg != "":
		return network.LoadConfig(s.cfg, s.weights, network.WithLogger(logger))
	default:
		return nil, errors.New("one of -cfg or -model is required")
	}
}

func summary(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var src source
	src.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	net, err := src.open(stderr)
	if err != nil {
		return err
	}
	return net.Summary(stdout)
}

func forward(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("forward", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var src source
	src.register(fs)
	fill := fs.Float64("fill", 1, "value of every input element")
	limit := fs.Int("n", 10, "number of output values to print")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit < 0 {
		return fmt.Errorf("-n must not be negative, got %d", *limit)
	}
	net, err := src.open(stderr)
	if err != nil {
		return err
	}

	in := net.InputShape()
	x := tensor.Full(tensor.Shape{net.Batch(), in[0], in[1], in[2]}, *fill)
	out, err := net.Forward(x)
	if err != nil {
		return err
	}

	data := out.Data()
	n := min(*limit, len(data))
	vals := make([]string, n)
	for i := range n {
		vals[i] = fmt.Sprintf("%.6g", data[i])
	}
	fmt.Fprintf(stdout, "output %v\n", out.Shape())
	fmt.Fprintf(stdout, "values [%s]", strings.Join(vals, " "))
	if n < len(data) {
		fmt.Fprintf(stdout, " ... (%d more)", len(data)-n)
	}
	fmt.Fprintln(stdout)
	return nil
}

func snapshot(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var src source
	src.register(fs)
	out := fs.String("out", "model.gnet", "snapshot file to write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	net, err := src.open(stderr)
	if err != nil {
		return err
	}
	if err := net.SaveModel(*out); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s (%d layers)\n", *out, net.NumLayers())
	return nil
}
