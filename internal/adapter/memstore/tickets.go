// Package memstore keeps confirmation tickets in process memory. It is the
// audit store used when no database is configured.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain"
	cf "github.com/GokulRavii/SingleAgent-MultiTool-System/internal/domain/confirmation"
)

// DefaultCapacity bounds the number of tickets kept in memory.
const DefaultCapacity = 1000

// Tickets implements approvalstore.Store. When full, the oldest ticket is
// evicted.
type Tickets struct {
	mu    sync.RWMutex
	max   int
	items map[string]cf.Ticket
	order []string
}

// NewTickets creates a store holding at most capacity tickets.
func NewTickets(capacity int) *Tickets {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tickets{max: capacity, items: make(map[string]cf.Ticket)}
}

// Save stores a copy of t. Terminal tickets are never reopened.
func (s *Tickets) Save(_ context.Context, t *cf.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.items[t.ID]; ok {
		if old.Decision.Terminal() {
			return nil
		}
		s.items[t.ID] = *t
		return nil
	}
	if len(s.order) >= s.max {
		delete(s.items, s.order[0])
		s.order = s.order[1:]
	}
	s.items[t.ID] = *t
	s.order = append(s.order, t.ID)
	return nil
}

// Get returns a copy of the ticket with the given ID.
func (s *Tickets) Get(_ context.Context, id string) (*cf.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("ticket %s: %w", id, domain.ErrNotFound)
	}
	return &t, nil
}

// ListRecent returns up to limit tickets, newest first.
func (s *Tickets) ListRecent(_ context.Context, limit int) ([]cf.Ticket, error) {
	s.mu.RLock()
	out := make([]cf.Ticket, 0, len(s.items))
	for _, t := range s.items {
		out = append(out, t)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
