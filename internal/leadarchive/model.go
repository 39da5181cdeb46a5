// Package leadarchive keeps a durable record of every qualified chat lead,
// independent of the CRM sync outcome.
package leadarchive

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrLeadNotFound is returned when no archived lead matches.
	ErrLeadNotFound = errors.New("leadarchive: lead not found")
	// ErrInvalidLead is returned when a record fails validation.
	ErrInvalidLead = errors.New("leadarchive: invalid lead")
)

// Lead is an archived qualification outcome.
type Lead struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Budget        string    `json:"budget"`
	LeadScore     int       `json:"lead_score"`
	Qualification string    `json:"qualification"`
	CRMStatus     string    `json:"crm_status"`
	CreatedAt     time.Time `json:"created_at"`
}

// ArchiveRequest is the payload for recording a lead.
type ArchiveRequest struct {
	SessionID     string
	Name          string
	Email         string
	Budget        string
	LeadScore     int
	Qualification string
	CRMStatus     string
}

// Validate checks required fields and bounds.
func (r *ArchiveRequest) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return errors.Join(ErrInvalidLead, errors.New("session_id is required"))
	}
	if strings.TrimSpace(r.Email) == "" {
		return errors.Join(ErrInvalidLead, errors.New("email is required"))
	}
	if r.LeadScore < 0 || r.LeadScore > 100 {
		return errors.Join(ErrInvalidLead, errors.New("lead_score must be between 0 and 100"))
	}
	return nil
}
