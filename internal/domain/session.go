package domain

import (
	"context"
	"time"
)

// Session is one live authenticated login as observed from the remote
// authority. A user may hold several concurrent sessions, so ID is the only
// stable identity; Username never is.
type Session struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	DisplayName      string    `json:"display_name"`
	Role             string    `json:"role"`
	RoleLabel        string    `json:"role_label"`
	LoginTime        time.Time `json:"login_time"`
	LastActivityTime time.Time `json:"last_activity_time"`
}

// DashboardCounters is the aggregate snapshot shown at the top of the
// console. It is refreshed on its own cadence, independent of the session
// list.
type DashboardCounters struct {
	OnlineSessions   int `json:"online_sessions"`
	TotalUsers       int `json:"total_users"`
	ActiveUsers      int `json:"active_users"`
	DeactivatedUsers int `json:"deactivated_users"`
}

// SessionPage is one bounded view over the deduplicated session list.
type SessionPage struct {
	Sessions   []Session `json:"sessions"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	Total      int       `json:"total"`
	TotalPages int       `json:"total_pages"`
	Stale      bool      `json:"stale"`
}

// SessionGateway is the engine's view of the remote session authority.
// Implementations must classify every failure (see internal/errors) instead
// of letting raw transport errors escape, and must treat an HTTP-level
// success whose body reports success=false as an application failure
// carrying the server-supplied message.
type SessionGateway interface {
	FetchActiveSessions(ctx context.Context) ([]Session, error)
	FetchDashboardCounters(ctx context.Context) (DashboardCounters, error)
	InvalidateSession(ctx context.Context, id string) error
}
