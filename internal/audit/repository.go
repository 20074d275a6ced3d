package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Action string

const (
	ActionAssignStaff   Action = "assign_staff"
	ActionApproveReport Action = "approve_report"
)

type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

const DefaultListLimit = 50

// Entry is one workflow attempt by a manager.
type Entry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ManagerID string    `db:"manager_id" json:"managerId"`
	Action    Action    `db:"action" json:"action"`
	TargetID  string    `db:"target_id" json:"targetId"`
	StaffID   *string   `db:"staff_id" json:"staffId,omitempty"`
	Outcome   Outcome   `db:"outcome" json:"outcome"`
	Message   string    `db:"message" json:"message,omitempty"`
	TraceID   *string   `db:"trace_id" json:"traceId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Querier defines pgxpool.Pool + pgxscan-compatible interface.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Repository struct {
	db Querier
}

func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

// Record stores e, assigning an id and timestamp when missing.
func (r *Repository) Record(ctx context.Context, e Entry) error {
	if e.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate audit id: %w", err)
		}
		e.ID = id
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO workflow_audit (id, manager_id, action, target_id, staff_id, outcome, message, trace_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		e.ID,
		e.ManagerID,
		string(e.Action),
		e.TargetID,
		e.StaffID,
		string(e.Outcome),
		e.Message,
		e.TraceID,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// ListByManager returns the most recent entries of a manager, newest first.
func (r *Repository) ListByManager(ctx context.Context, managerID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := `SELECT id, manager_id, action, target_id, staff_id, outcome, message, trace_id, created_at FROM workflow_audit WHERE manager_id = $1 ORDER BY created_at DESC LIMIT $2`
	var entries []Entry
	if err := pgxscan.Select(ctx, r.db, &entries, query, managerID, limit); err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Nop discards entries; used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

func (Nop) ListByManager(context.Context, string, int) ([]Entry, error) {
	return []Entry{}, nil
}
