package domain

import (
	"context"
	"time"
)

// NoticeLevel classifies operator notifications.
type NoticeLevel string

const (
	// NoticeSuccess confirms an operator-initiated action.
	NoticeSuccess NoticeLevel = "success"
	// NoticeError reports an ordinary failure (network flakiness, server error).
	NoticeError NoticeLevel = "error"
	// NoticeAuth reports a credential problem. Rendered distinctly because
	// it is not transient and won't clear on its own.
	NoticeAuth NoticeLevel = "auth"
)

// Notice is an operator-facing notification emitted by the sync engine.
type Notice struct {
	Level     NoticeLevel `json:"level"`
	Message   string      `json:"message"`
	SessionID string      `json:"session_id,omitempty"`
	Time      time.Time   `json:"time"`
}

// SnapshotPublisher receives engine state changes for fan-out to connected
// consoles. Implementations must not block the engine's poll loop.
type SnapshotPublisher interface {
	PublishSessions(ctx context.Context, sessions []Session)
	PublishCounters(ctx context.Context, counters DashboardCounters)
	PublishNotice(ctx context.Context, notice Notice)
}
