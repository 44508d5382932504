// Package model defines the port for language-model inference.
package model

import "context"

// Completer turns a natural-language task into the model's raw text output.
// Errors wrap domain.ErrInference.
type Completer interface {
	Complete(ctx context.Context, task string) (string, error)
}
