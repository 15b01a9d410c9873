// Package text contains the causal-language-model runtimes. Two adapters
// exist: an in-process llama.cpp binding (build tag "llama") for single-file
// weights, and a subprocess adapter that spawns an OpenAI-compatible server
// for directory-format model repositories.
package text

import "context"

// InferenceAdapter abstracts a text-model runtime.
type InferenceAdapter interface {
	// Start loads the model at modelPath and returns a live session.
	Start(modelPath string, params InferParams) (InferSession, error)
}

// InferSession is one loaded model. Close releases the weights (or the
// backing process); it must be safe to call on every exit path.
type InferSession interface {
	// Generate runs one blocking completion for the prompt. The onToken
	// callback is invoked per fragment when the runtime streams internally;
	// it may be nil.
	Generate(ctx context.Context, prompt string, onToken func(string) error) (FinalResult, error)
	Close() error
}

// InferParams captures generation parameters passed to the adapter.
type InferParams struct {
	Temperature   float32
	TopP          float32
	TopK          int
	MaxTokens     int
	Stop          []string
	Seed          int
	RepeatPenalty float32
	// CtxSize and GPULayers configure the model load itself.
	CtxSize   int
	GPULayers int
	Threads   int
}

// FinalResult summarizes the generation.
type FinalResult struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage contains token accounting.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LlamaSupported reports whether the in-process llama runtime was compiled
// in (build tag "llama").
func LlamaSupported() bool { return llamaBuilt }
