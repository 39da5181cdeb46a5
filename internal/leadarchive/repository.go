package leadarchive

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead archive storage.
type Repository interface {
	Archive(ctx context.Context, req *ArchiveRequest) (*Lead, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	ListBySession(ctx context.Context, sessionID string) ([]*Lead, error)
}

// InMemoryRepository is a Repository backed by a map, for development and
// tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
	}
}

// Archive records a lead in memory.
func (r *InMemoryRepository) Archive(ctx context.Context, req *ArchiveRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lead := &Lead{
		ID:            uuid.New().String(),
		SessionID:     req.SessionID,
		Name:          req.Name,
		Email:         req.Email,
		Budget:        req.Budget,
		LeadScore:     req.LeadScore,
		Qualification: req.Qualification,
		CRMStatus:     req.CRMStatus,
		CreatedAt:     time.Now().UTC(),
	}

	r.mu.Lock()
	r.leads[lead.ID] = lead
	r.mu.Unlock()

	return lead, nil
}

// GetByID retrieves an archived lead by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return lead, nil
}

// ListBySession returns every archived lead for a session.
func (r *InMemoryRepository) ListBySession(ctx context.Context, sessionID string) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Lead
	for _, lead := range r.leads {
		if lead.SessionID == sessionID {
			out = append(out, lead)
		}
	}
	return out, nil
}
