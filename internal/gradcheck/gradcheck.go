// Package gradcheck compares analytic gradients against central finite
// differences.
//
// For an operation f and a random output weighting w, the scalar loss
// L = Σ w ⊙ f(inputs) is differentiated numerically with respect to every
// input element and compared against the analytic gradient of L, which is
// the operation's backward pass applied to w.
package gradcheck

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/encoding/internal/tensor"
)

// ErrMismatch is returned by Report.Err when a gradient is out of tolerance.
var ErrMismatch = errors.New("gradcheck: analytic and numeric gradients differ")

// Config controls the finite-difference step and the acceptance tolerance.
type Config struct {
	Eps  float64 // Central-difference step.
	Atol float64 // Absolute tolerance.
	Rtol float64 // Relative tolerance, scaled by |numeric|.
	Seed int64   // Seed for the output weighting.
}

// DefaultConfig returns the defaults used by torch.autograd.gradcheck.
func DefaultConfig() Config {
	return Config{
		Eps:  1e-6,
		Atol: 1e-5,
		Rtol: 1e-3,
		Seed: 1,
	}
}

// Func evaluates the operation under test.
type Func func(inputs []*tensor.RawTensor) (*tensor.RawTensor, error)

// GradFunc returns the gradient of every input given the output gradient.
type GradFunc func(inputs []*tensor.RawTensor, outputGrad *tensor.RawTensor) ([]*tensor.RawTensor, error)

// Result summarizes the comparison for one input.
type Result struct {
	Name      string
	MaxAbsErr float64
	MaxRelErr float64
	Failures  int // Elements outside atol + rtol·|numeric|.
	Elements  int
}

// Report holds one Result per input.
type Report struct {
	Results []Result
}

// OK reports whether every input passed.
func (r Report) OK() bool {
	for _, res := range r.Results {
		if res.Failures > 0 {
			return false
		}
	}
	return true
}

// Err returns an error wrapping ErrMismatch that names the failing inputs,
// or nil if every input passed.
func (r Report) Err() error {
	var failed []string
	for _, res := range r.Results {
		if res.Failures > 0 {
			failed = append(failed, fmt.Sprintf("%s (%d/%d, max abs %.3g)", res.Name, res.Failures, res.Elements, res.MaxAbsErr))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMismatch, strings.Join(failed, ", "))
}

// String formats the report as one line per input.
func (r Report) String() string {
	var sb strings.Builder
	for _, res := range r.Results {
		status := "ok"
		if res.Failures > 0 {
			status = "FAIL"
		}
		fmt.Fprintf(&sb, "%-4s %-6s max_abs=%.3e max_rel=%.3e (%d elements)\n",
			status, res.Name, res.MaxAbsErr, res.MaxRelErr, res.Elements)
	}
	return sb.String()
}

// Check differentiates f numerically with respect to every element of every
// input and compares the result with grad.
//
// Inputs must be float64. They are perturbed in place and restored before
// Check returns. names labels the inputs in the report and may be nil.
func Check(f Func, grad GradFunc, inputs []*tensor.RawTensor, names []string, cfg Config) (Report, error) {
	for i, in := range inputs {
		if in.DType() != tensor.Float64 {
			return Report{}, fmt.Errorf("gradcheck: input %d: %w: %s (need float64)", i, tensor.ErrUnsupportedDType, in.DType())
		}
	}

	out, err := f(inputs)
	if err != nil {
		return Report{}, fmt.Errorf("gradcheck: forward: %w", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // G404: reproducible test weights
	weights, err := tensor.Uniform(out.Shape(), tensor.Float64, out.Device(), rng, -1, 1)
	if err != nil {
		return Report{}, fmt.Errorf("gradcheck: %w", err)
	}

	analytic, err := grad(inputs, weights)
	if err != nil {
		return Report{}, fmt.Errorf("gradcheck: backward: %w", err)
	}
	if len(analytic) != len(inputs) {
		return Report{}, fmt.Errorf("gradcheck: backward returned %d gradients for %d inputs", len(analytic), len(inputs))
	}

	loss := func() (float64, error) {
		y, err := f(inputs)
		if err != nil {
			return 0, err
		}
		return floats.Dot(weights.AsFloat64(), y.AsFloat64()), nil
	}

	report := Report{Results: make([]Result, len(inputs))}
	for i, in := range inputs {
		res := Result{Name: inputName(names, i), Elements: in.NumElements()}
		if !analytic[i].Shape().Equal(in.Shape()) {
			return Report{}, fmt.Errorf("gradcheck: %s: gradient shape %v, want %v", res.Name, analytic[i].Shape(), in.Shape())
		}
		ana := analytic[i].Float64s()
		data := in.AsFloat64()

		for j := range data {
			orig := data[j]

			data[j] = orig + cfg.Eps
			plus, err := loss()
			if err != nil {
				data[j] = orig
				return Report{}, fmt.Errorf("gradcheck: %s[%d]: %w", res.Name, j, err)
			}
			data[j] = orig - cfg.Eps
			minus, err := loss()
			data[j] = orig
			if err != nil {
				return Report{}, fmt.Errorf("gradcheck: %s[%d]: %w", res.Name, j, err)
			}

			numeric := (plus - minus) / (2 * cfg.Eps)
			absErr := math.Abs(numeric - ana[j])
			res.MaxAbsErr = math.Max(res.MaxAbsErr, absErr)
			if numeric != 0 {
				res.MaxRelErr = math.Max(res.MaxRelErr, absErr/math.Abs(numeric))
			}
			if !(absErr <= cfg.Atol+cfg.Rtol*math.Abs(numeric)) {
				res.Failures++
			}
		}
		report.Results[i] = res
	}
	return report, nil
}

func inputName(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return fmt.Sprintf("input%d", i)
}
