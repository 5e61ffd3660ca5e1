package tensor

// Backend defines the numeric kernels a compute backend must implement.
// The operator layer validates shapes before calling into a backend, so
// implementations may assume consistent B, N, K and D across arguments.
//
// Implementations:
//   - CPU: pure Go on gonum BLAS, batch-parallel
//   - WebGPU: WGSL compute shaders (float32 only)
//   - MockBackend: naive loops for correctness verification
type Backend interface {
	// AggregateForward computes E[b,k,:] = Σ_i A[b,i,k]·(X[b,i,:] − C[k,:]).
	// A is (B,N,K), X is (B,N,D), C is (K,D); the result is (B,K,D).
	AggregateForward(a, x, c *RawTensor) (*RawTensor, error)

	// AggregateBackward returns the gradients of AggregateForward with
	// respect to A, X and C given the output gradient gradE (B,K,D).
	AggregateBackward(gradE, a, x, c *RawTensor) (gradA, gradX, gradC *RawTensor, err error)

	// Metadata
	Name() string
	Device() Device
}
