// Package weather defines the port for fetching documents from the weather
// data provider.
package weather

import "context"

// Source fetches a JSON document. Non-2xx responses and network failures
// are returned as errors; callers turn them into descriptive text.
type Source interface {
	Get(ctx context.Context, url string) ([]byte, error)
}
