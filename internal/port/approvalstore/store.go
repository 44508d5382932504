// Package approvalstore defines the port for the confirmation audit trail.
package approvalstore

import (
	"context"

	cf "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/confirmation"
)

// Store persists confirmation tickets. Save is called when a ticket opens and
// again when it reaches a terminal decision.
type Store interface {
	Save(ctx context.Context, t *cf.Ticket) error
	Get(ctx context.Context, id string) (*cf.Ticket, error)
	ListRecent(ctx context.Context, limit int) ([]cf.Ticket, error)
}
