package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InvalidationOutcome records how a forced logout ended.
type InvalidationOutcome string

const (
	InvalidationSucceeded InvalidationOutcome = "succeeded"
	InvalidationFailed    InvalidationOutcome = "failed"
)

// InvalidationRecord is one durable audit entry for an operator-initiated
// session termination.
type InvalidationRecord struct {
	ID          uuid.UUID           `json:"id"`
	SessionID   string              `json:"session_id"`
	Username    string              `json:"username,omitempty"`
	DisplayName string              `json:"display_name,omitempty"`
	Outcome     InvalidationOutcome `json:"outcome"`
	Message     string              `json:"message,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// InvalidationAuditor persists invalidation outcomes. Recording is
// best-effort from the engine's point of view: an audit failure is logged,
// never surfaced to the operator.
type InvalidationAuditor interface {
	Record(ctx context.Context, rec InvalidationRecord) error
	ListRecent(ctx context.Context, limit int) ([]InvalidationRecord, error)
}
