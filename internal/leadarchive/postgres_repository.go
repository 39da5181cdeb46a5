package leadarchive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// querier is the subset of pgxpool.Pool the repository uses.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores archived leads in the relational database.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db querier) *PostgresRepository {
	if db == nil {
		panic("leadarchive: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Archive inserts a new row.
func (r *PostgresRepository) Archive(ctx context.Context, req *ArchiveRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO lead_archive (id, session_id, name, email, budget, lead_score, qualification, crm_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.SessionID,
		req.Name,
		req.Email,
		req.Budget,
		req.LeadScore,
		req.Qualification,
		req.CRMStatus,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("leadarchive: insert failed: %w", err)
	}

	return &Lead{
		ID:            id.String(),
		SessionID:     req.SessionID,
		Name:          req.Name,
		Email:         req.Email,
		Budget:        req.Budget,
		LeadScore:     req.LeadScore,
		Qualification: req.Qualification,
		CRMStatus:     req.CRMStatus,
		CreatedAt:     createdAt,
	}, nil
}

// GetByID fetches an archived lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	query := `
		SELECT id, session_id, name, email, budget, lead_score, qualification, crm_status, created_at
		FROM lead_archive
		WHERE id = $1
	`
	row := r.db.QueryRow(ctx, query, id)
	var lead Lead
	if err := row.Scan(
		&lead.ID,
		&lead.SessionID,
		&lead.Name,
		&lead.Email,
		&lead.Budget,
		&lead.LeadScore,
		&lead.Qualification,
		&lead.CRMStatus,
		&lead.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leadarchive: select failed: %w", err)
	}
	return &lead, nil
}

// ListBySession returns every archived lead for a session, newest first.
func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string) ([]*Lead, error) {
	query := `
		SELECT id, session_id, name, email, budget, lead_score, qualification, crm_status, created_at
		FROM lead_archive
		WHERE session_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("leadarchive: select failed: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(
			&lead.ID,
			&lead.SessionID,
			&lead.Name,
			&lead.Email,
			&lead.Budget,
			&lead.LeadScore,
			&lead.Qualification,
			&lead.CRMStatus,
			&lead.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("leadarchive: scan failed: %w", err)
		}
		out = append(out, &lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leadarchive: rows failed: %w", err)
	}
	return out, nil
}
