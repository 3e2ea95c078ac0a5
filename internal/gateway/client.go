// Package gateway implements the HTTP client for the remote session
// authority: the admin API that owns the source of truth for live sessions.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sanohind/sessiondeck/internal/domain"
	apperrors "github.com/sanohind/sessiondeck/internal/errors"
)

const httpCallTimeout = 10 * time.Second

// Client is the HTTP implementation of domain.SessionGateway. The bearer
// credential is injected at construction and may be swapped on rotation;
// the client never acquires or refreshes it.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

var _ domain.SessionGateway = (*Client)(nil)

func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: httpCallTimeout},
	}
}

// SetCredential swaps the bearer credential, e.g. after a rotation.
func (c *Client) SetCredential(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// envelope is the admin API's response wrapper. An HTTP 200 with
// success=false is still a failure; the message belongs to the operator.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type wireSession struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	DisplayName      string    `json:"display_name"`
	Role             string    `json:"role"`
	LoginTime        time.Time `json:"login_time"`
	LastActivityTime time.Time `json:"last_activity_time"`
}

func (w wireSession) toDomain() domain.Session {
	return domain.Session{
		ID:               w.ID,
		Username:         w.Username,
		DisplayName:      w.DisplayName,
		Role:             w.Role,
		RoleLabel:        domain.ResolveRoleLabel(w.Role),
		LoginTime:        w.LoginTime,
		LastActivityTime: w.LastActivityTime,
	}
}

type wireCounters struct {
	OnlineUsers   int `json:"online_users"`
	TotalUsers    int `json:"total_users"`
	ActiveUsers   int `json:"active_users"`
	DeactiveUsers int `json:"deactive_users"`
}

// FetchActiveSessions returns the raw list of live sessions. The list may
// contain duplicate IDs; deduplication is the registry's job.
func (c *Client) FetchActiveSessions(ctx context.Context) ([]domain.Session, error) {
	var data []wireSession
	if err := c.call(ctx, http.MethodGet, "/admin/sessions/online", &data); err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, 0, len(data))
	for _, w := range data {
		sessions = append(sessions, w.toDomain())
	}
	return sessions, nil
}

// FetchDashboardCounters returns the aggregate dashboard snapshot.
func (c *Client) FetchDashboardCounters(ctx context.Context) (domain.DashboardCounters, error) {
	var data wireCounters
	if err := c.call(ctx, http.MethodGet, "/admin/dashboard", &data); err != nil {
		return domain.DashboardCounters{}, err
	}

	return domain.DashboardCounters{
		OnlineSessions:   data.OnlineUsers,
		TotalUsers:       data.TotalUsers,
		ActiveUsers:      data.ActiveUsers,
		DeactivatedUsers: data.DeactiveUsers,
	}, nil
}

// InvalidateSession forcibly logs out one session. A nil return means the
// server confirmed the logout; anything else means the session may still be
// alive and local state must not be touched.
func (c *Client) InvalidateSession(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodPost, "/admin/sessions/logout/"+id, nil)
}

// call performs one authenticated request and decodes the envelope into
// out (when non-nil). Every failure mode maps onto the error taxonomy.
func (c *Client) call(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return apperrors.TransportError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.credential())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.TransportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.AuthError(resp.StatusCode)
	case resp.StatusCode >= 400:
		return apperrors.ServerError(resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return apperrors.MalformedError(err)
	}

	if !env.Success {
		return apperrors.ApplicationError(env.Message)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return apperrors.MalformedError(err)
		}
	}
	return nil
}
