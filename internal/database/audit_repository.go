package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sanohind/sessiondeck/internal/domain"
)

// auditColumns must match the Scan order in scanRecord.
const auditColumns = `id, session_id, username, display_name, outcome, message, created_at`

// AuditRepo implements domain.InvalidationAuditor backed by PostgreSQL.
type AuditRepo struct {
	pool *pgxpool.Pool
}

var _ domain.InvalidationAuditor = (*AuditRepo)(nil)

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// Record persists one invalidation outcome.
func (r *AuditRepo) Record(ctx context.Context, rec domain.InvalidationRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO invalidation_audit (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.SessionID, rec.Username, rec.DisplayName, string(rec.Outcome), rec.Message, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

// ListRecent returns the newest audit entries, most recent first.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]domain.InvalidationRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+auditColumns+`
		FROM invalidation_audit
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []domain.InvalidationRecord
	for rows.Next() {
		var rec domain.InvalidationRecord
		var outcome string
		err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Username, &rec.DisplayName, &outcome, &rec.Message, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		rec.Outcome = domain.InvalidationOutcome(outcome)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit records: %w", err)
	}
	return records, nil
}
