package model

import "context"

// Info describes a model implementation.
type Info struct {
	// Name is the model identifier (e.g. "gpt-4o-mini").
	Name string
	// Provider names the backing service (e.g. "openai", "anthropic").
	Provider string
}

// Model is the minimal inference contract consumed by the analysis agent:
// one prompt in, one completion out. Provider packages adapt their SDKs
// behind this interface.
type Model interface {
	// Complete generates a completion for the prompt. It may block on
	// network I/O and must respect ctx cancellation.
	Complete(ctx context.Context, prompt string) (string, error)

	// Info returns model metadata.
	Info() Info
}
