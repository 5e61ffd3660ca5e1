// Package main provides the encoding CLI.
//
// Usage:
//
//	encoding version
//	encoding gradcheck -b 2 -n 3 -k 4 -d 5
//	encoding bench -b 16 -n 1024 -k 32 -d 128 -iterations 20
package main

import (
	"fmt"
	"os"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("encoding %s\n", version)
	case "gradcheck":
		runGradcheck(os.Args[2:])
	case "bench":
		runBench(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("encoding - Aggregate and ScaledL2 kernels")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  gradcheck  Compare analytic and finite-difference gradients")
	fmt.Println("  bench      Time forward and backward passes on CPU and WebGPU")
}
