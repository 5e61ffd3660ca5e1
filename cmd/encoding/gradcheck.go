package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/born-ml/encoding/internal/autodiff"
	"github.com/born-ml/encoding/internal/gradcheck"
	"github.com/born-ml/encoding/internal/tensor"
)

// checkCase is one operation under gradient check.
type checkCase struct {
	name   string
	inputs []string
	f      gradcheck.Func
	grad   gradcheck.GradFunc
}

func runGradcheck(args []string) {
	fs := flag.NewFlagSet("gradcheck", flag.ExitOnError)
	B := fs.Int("b", 2, "Batch size")
	N := fs.Int("n", 3, "Samples per batch")
	K := fs.Int("k", 4, "Codewords")
	D := fs.Int("d", 5, "Feature dimension")
	seed := fs.Int64("seed", 1, "Random seed for inputs and output weights")
	defaults := gradcheck.DefaultConfig()
	eps := fs.Float64("eps", defaults.Eps, "Finite-difference step")
	atol := fs.Float64("atol", defaults.Atol, "Absolute tolerance")
	rtol := fs.Float64("rtol", defaults.Rtol, "Relative tolerance")
	_ = fs.Parse(args)

	cfg := gradcheck.Config{Eps: *eps, Atol: *atol, Rtol: *rtol, Seed: *seed}
	d := autodiff.NewDispatcher()
	defer d.Release()

	cases := []checkCase{
		{
			name:   "aggregate",
			inputs: []string{"A", "X", "C"},
			f: func(in []*tensor.RawTensor) (*tensor.RawTensor, error) {
				e, _, err := d.Aggregate(in[0], in[1], in[2])
				return e, err
			},
			grad: func(in []*tensor.RawTensor, g *tensor.RawTensor) ([]*tensor.RawTensor, error) {
				_, op, err := d.Aggregate(in[0], in[1], in[2])
				if err != nil {
					return nil, err
				}
				return op.Backward(g)
			},
		},
		{
			name:   "scaled_l2",
			inputs: []string{"X", "C", "S"},
			f: func(in []*tensor.RawTensor) (*tensor.RawTensor, error) {
				sl, _, err := d.ScaledL2(in[0], in[1], in[2])
				return sl, err
			},
			grad: func(in []*tensor.RawTensor, g *tensor.RawTensor) ([]*tensor.RawTensor, error) {
				_, op, err := d.ScaledL2(in[0], in[1], in[2])
				if err != nil {
					return nil, err
				}
				return op.Backward(g)
			},
		},
	}

	rng := rand.New(rand.NewSource(*seed)) //nolint:gosec // G404: reproducible inputs
	shapes := map[string]tensor.Shape{
		"A": {*B, *N, *K},
		"X": {*B, *N, *D},
		"C": {*K, *D},
		"S": {*K},
	}

	failed := false
	for _, tc := range cases {
		inputs := make([]*tensor.RawTensor, len(tc.inputs))
		for i, name := range tc.inputs {
			in, err := tensor.Uniform(shapes[name], tensor.Float64, tensor.CPU, rng, -1, 1)
			if err != nil {
				log.Fatalf("gradcheck: %s: %v", tc.name, err)
			}
			inputs[i] = in
		}

		report, err := gradcheck.Check(tc.f, tc.grad, inputs, tc.inputs, cfg)
		if err != nil {
			log.Fatalf("gradcheck: %s: %v", tc.name, err)
		}
		fmt.Printf("%s (B=%d N=%d K=%d D=%d)\n%s", tc.name, *B, *N, *K, *D, report)
		if err := report.Err(); err != nil {
			log.Printf("%s: %v", tc.name, err)
			failed = true
		}
	}

	if failed {
		log.Fatal("gradcheck failed")
	}
	fmt.Println("gradcheck passed")
}
