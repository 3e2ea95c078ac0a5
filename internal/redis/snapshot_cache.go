package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/sanohind/sessiondeck/internal/domain"
	"github.com/sanohind/sessiondeck/internal/metrics"
)

const (
	sessionsKey = "sessiondeck:snapshot:sessions"
	countersKey = "sessiondeck:snapshot:counters"

	// snapshotTTL bounds how long Redis keeps a snapshot at all;
	// maxSnapshotAge bounds how old a snapshot may be and still be worth
	// showing as a stale warm-start view.
	snapshotTTL    = 15 * time.Minute
	maxSnapshotAge = 10 * time.Minute
)

// SnapshotCache persists the last good engine state in Redis so a restart
// can warm-start the console instead of showing an empty table until the
// first poll. Everything here is best-effort: a cache failure never fails
// the caller's poll cycle.
type SnapshotCache struct {
	rdb   goredis.Cmdable
	clock clockwork.Clock
}

func NewSnapshotCache(rdb goredis.Cmdable, clock clockwork.Clock) *SnapshotCache {
	return &SnapshotCache{rdb: rdb, clock: clock}
}

type sessionsEnvelope struct {
	SavedAt  time.Time        `json:"saved_at"`
	Sessions []domain.Session `json:"sessions"`
}

type countersEnvelope struct {
	SavedAt  time.Time                `json:"saved_at"`
	Counters domain.DashboardCounters `json:"counters"`
}

// SaveSessions stores the current session snapshot.
func (c *SnapshotCache) SaveSessions(ctx context.Context, sessions []domain.Session) error {
	return c.save(ctx, sessionsKey, sessionsEnvelope{SavedAt: c.clock.Now(), Sessions: sessions})
}

// SaveCounters stores the current dashboard counters.
func (c *SnapshotCache) SaveCounters(ctx context.Context, counters domain.DashboardCounters) error {
	return c.save(ctx, countersKey, countersEnvelope{SavedAt: c.clock.Now(), Counters: counters})
}

// LoadSessions returns the cached session snapshot. ok is false on a miss
// or when the snapshot is too old to be worth showing.
func (c *SnapshotCache) LoadSessions(ctx context.Context) (sessions []domain.Session, ok bool, err error) {
	var env sessionsEnvelope
	ok, err = c.load(ctx, sessionsKey, &env)
	if err != nil || !ok {
		return nil, false, err
	}
	return env.Sessions, true, nil
}

// LoadCounters returns the cached dashboard counters.
func (c *SnapshotCache) LoadCounters(ctx context.Context) (counters domain.DashboardCounters, ok bool, err error) {
	var env countersEnvelope
	ok, err = c.load(ctx, countersKey, &env)
	if err != nil || !ok {
		return domain.DashboardCounters{}, false, err
	}
	return env.Counters, true, nil
}

func (c *SnapshotCache) save(ctx context.Context, key string, envelope any) error {
	encoded, err := json.Marshal(envelope)
	if err != nil {
		metrics.SnapshotCacheOpsTotal.WithLabelValues("save", "failure").Inc()
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := c.rdb.Set(ctx, key, encoded, snapshotTTL).Err(); err != nil {
		metrics.SnapshotCacheOpsTotal.WithLabelValues("save", "failure").Inc()
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	metrics.SnapshotCacheOpsTotal.WithLabelValues("save", "success").Inc()
	return nil
}

func (c *SnapshotCache) load(ctx context.Context, key string, envelope any) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		metrics.SnapshotCacheOpsTotal.WithLabelValues("load", "miss").Inc()
		return false, nil
	}
	if err != nil {
		metrics.SnapshotCacheOpsTotal.WithLabelValues("load", "failure").Inc()
		return false, fmt.Errorf("failed to read snapshot: %w", err)
	}

	if err := json.Unmarshal(data, envelope); err != nil {
		metrics.SnapshotCacheOpsTotal.WithLabelValues("load", "failure").Inc()
		return false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	savedAt := extractSavedAt(envelope)
	if c.clock.Since(savedAt) > maxSnapshotAge {
		metrics.SnapshotCacheOpsTotal.WithLabelValues("load", "expired").Inc()
		return false, nil
	}

	metrics.SnapshotCacheOpsTotal.WithLabelValues("load", "success").Inc()
	return true, nil
}

func extractSavedAt(envelope any) time.Time {
	switch e := envelope.(type) {
	case *sessionsEnvelope:
		return e.SavedAt
	case *countersEnvelope:
		return e.SavedAt
	default:
		return time.Time{}
	}
}
