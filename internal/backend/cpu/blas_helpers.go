package cpu

import (
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"
)

// general64 views a row-major slice as a rows×cols matrix.
func general64(data []float64, rows, cols int) blas64.General {
	return blas64.General{Rows: rows, Cols: cols, Stride: cols, Data: data}
}

func vector64(data []float64) blas64.Vector {
	return blas64.Vector{N: len(data), Inc: 1, Data: data}
}

// row64 views row k of m as a vector sharing m's storage.
func row64(m blas64.General, k int) blas64.Vector {
	return vector64(m.Data[k*m.Stride : k*m.Stride+m.Cols])
}

func ones64(n int) blas64.Vector {
	data := make([]float64, n)
	for i := range data {
		data[i] = 1
	}
	return vector64(data)
}

func general32(data []float32, rows, cols int) blas32.General {
	return blas32.General{Rows: rows, Cols: cols, Stride: cols, Data: data}
}

func vector32(data []float32) blas32.Vector {
	return blas32.Vector{N: len(data), Inc: 1, Data: data}
}

func row32(m blas32.General, k int) blas32.Vector {
	return vector32(m.Data[k*m.Stride : k*m.Stride+m.Cols])
}

func ones32(n int) blas32.Vector {
	data := make([]float32, n)
	for i := range data {
		data[i] = 1
	}
	return vector32(data)
}
