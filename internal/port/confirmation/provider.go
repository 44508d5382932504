// Package confirmation defines the port for channels that put a pending tool
// call in front of a human.
package confirmation

import (
	"context"

	cf "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/confirmation"
)

// Provider presents a confirmation request and blocks until the human
// answers or ctx is done. The gate fans a request out to every provider and
// takes the first answer.
type Provider interface {
	RequestConfirmation(ctx context.Context, req cf.Request) (cf.Response, error)

	// Name returns the provider identifier (e.g. "terminal", "nats").
	Name() string
}
