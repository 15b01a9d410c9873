//go:build !llama

package text

// No-CGO stub compiled when the 'llama' build tag is not set, keeping
// default builds and CI CGO-free. No mocked inference: the stub refuses to
// run, so a missing runtime is always an explicit error.

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = false

type llamaAdapter struct{}

// NewLlamaAdapter returns the stub adapter for builds without the llama tag.
func NewLlamaAdapter() InferenceAdapter { return &llamaAdapter{} }

func (a *llamaAdapter) Start(modelPath string, params InferParams) (InferSession, error) {
	return nil, ErrUnavailable("llama runtime not built in (rebuild with -tags=llama)")
}
