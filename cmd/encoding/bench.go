package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/born-ml/encoding/internal/autodiff"
	"github.com/born-ml/encoding/internal/backend/webgpu"
	"github.com/born-ml/encoding/internal/tensor"
)

func runBench(args []string) {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	B := fs.Int("b", 16, "Batch size")
	N := fs.Int("n", 1024, "Samples per batch")
	K := fs.Int("k", 32, "Codewords")
	D := fs.Int("d", 128, "Feature dimension")
	iterations := fs.Int("iterations", 20, "Number of iterations to run")
	warmup := fs.Int("warmup", 3, "Number of warmup iterations")
	_ = fs.Parse(args)

	fmt.Printf("Configuration: B=%d N=%d K=%d D=%d, %d iterations (%d warmup)\n\n",
		*B, *N, *K, *D, *iterations, *warmup)

	d := autodiff.NewDispatcher()
	defer d.Release()

	devices := []tensor.Device{tensor.CPU}
	if webgpu.IsAvailable() {
		devices = append(devices, tensor.WebGPU)
	} else {
		fmt.Println("WebGPU not available on this system, benchmarking CPU only.")
	}

	rng := rand.New(rand.NewSource(1)) //nolint:gosec // G404: benchmark data
	a := mustUniform(tensor.Shape{*B, *N, *K}, rng)
	x := mustUniform(tensor.Shape{*B, *N, *D}, rng)
	c := mustUniform(tensor.Shape{*K, *D}, rng)
	s := mustUniform(tensor.Shape{*K}, rng)

	for _, device := range devices {
		backend, err := d.Backend(device)
		if err != nil {
			log.Printf("bench: %s: %v", device, err)
			continue
		}

		da, dx, dc, ds := a.ToDevice(device), x.ToDevice(device), c.ToDevice(device), s.ToDevice(device)
		step := func() error {
			e, aggOp, err := d.Aggregate(da, dx, dc)
			if err != nil {
				return err
			}
			if _, err := aggOp.Backward(e); err != nil {
				return err
			}
			sl, l2Op, err := d.ScaledL2(dx, dc, ds)
			if err != nil {
				return err
			}
			_, err = l2Op.Backward(sl)
			return err
		}

		for i := 0; i < *warmup; i++ {
			if err := step(); err != nil {
				log.Fatalf("bench: %s: %v", device, err)
			}
		}
		start := time.Now()
		for i := 0; i < *iterations; i++ {
			if err := step(); err != nil {
				log.Fatalf("bench: %s: %v", device, err)
			}
		}
		elapsed := time.Since(start)
		fmt.Printf("%-24s %10.3f ms/iter\n", backend.Name(), float64(elapsed.Microseconds())/1000/float64(*iterations))
	}
}

func mustUniform(shape tensor.Shape, rng *rand.Rand) *tensor.RawTensor {
	r, err := tensor.Uniform(shape, tensor.Float32, tensor.CPU, rng, -0.5, 0.5)
	if err != nil {
		log.Fatal(err)
	}
	return r
}
