// Package engine implements the session registry sync engine: the poll
// scheduler that keeps the registry reconciled with the remote authority,
// and the invalidation controller for operator-initiated logouts.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/sanohind/sessiondeck/internal/correlation"
	"github.com/sanohind/sessiondeck/internal/domain"
	apperrors "github.com/sanohind/sessiondeck/internal/errors"
	"github.com/sanohind/sessiondeck/internal/metrics"
	"github.com/sanohind/sessiondeck/internal/registry"
)

// State is the poll scheduler's lifecycle state.
type State string

const (
	// StateIdle means the loop is not running (never started, or torn down).
	StateIdle State = "idle"
	// StatePolling means the loop is armed and synchronizing on cadence.
	StatePolling State = "polling"
	// StateStopped means the loop gave up after repeated failures. Terminal
	// until the owner explicitly restarts the engine.
	StateStopped State = "stopped"
)

// failureThreshold is the number of consecutive failed fetches tolerated
// before the scheduler stops. Bounded tolerance keeps an unreachable
// backend from producing an endless stream of requests and error noise
// while still riding out brief blips.
const failureThreshold = 3

const (
	channelSessions = "sessions"
	channelCounters = "counters"
)

// SnapshotCache persists the last good snapshot so a console restart is
// not blind until the first poll. Saving is best-effort.
type SnapshotCache interface {
	SaveSessions(ctx context.Context, sessions []domain.Session) error
	SaveCounters(ctx context.Context, counters domain.DashboardCounters) error
}

// Engine owns the registry and is its only writer. All timer work runs on
// a single goroutine; consumers read consistent snapshots.
type Engine struct {
	gateway  domain.SessionGateway
	registry *registry.Registry
	clock    clockwork.Clock

	pollInterval     time.Duration
	countersInterval time.Duration

	publisher domain.SnapshotPublisher
	auditor   domain.InvalidationAuditor
	cache     SnapshotCache

	mu       sync.Mutex
	state    State
	failures int
	counters domain.DashboardCounters
	cancel   context.CancelFunc
	done     chan struct{}

	refreshCh chan struct{}
}

func New(gw domain.SessionGateway, reg *registry.Registry, clock clockwork.Clock, pollInterval, countersInterval time.Duration) *Engine {
	return &Engine{
		gateway:          gw,
		registry:         reg,
		clock:            clock,
		pollInterval:     pollInterval,
		countersInterval: countersInterval,
		state:            StateIdle,
		refreshCh:        make(chan struct{}, 1),
	}
}

// SetPublisher wires the console fan-out. Must be called before Start.
func (e *Engine) SetPublisher(p domain.SnapshotPublisher) { e.publisher = p }

// SetAuditor wires the invalidation audit trail. Must be called before Start.
func (e *Engine) SetAuditor(a domain.InvalidationAuditor) { e.auditor = a }

// SetCache wires the warm-start snapshot cache. Must be called before Start.
func (e *Engine) SetCache(c SnapshotCache) { e.cache = c }

// SeedCounters installs cached counters at startup, ahead of the first poll.
func (e *Engine) SeedCounters(c domain.DashboardCounters) {
	e.mu.Lock()
	e.counters = c
	e.mu.Unlock()
}

// Start launches the poll loop. One eager synchronization of both channels
// runs before the first timer tick. Returns an error if already running;
// restarting after a three-strike stop is allowed and resets the counter.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StatePolling {
		e.mu.Unlock()
		return fmt.Errorf("sync engine already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	e.failures = 0
	e.setStateLocked(StatePolling)
	done := e.done
	e.mu.Unlock()

	metrics.ConsecutivePollFailures.Set(0)
	go e.run(runCtx, done)
	return nil
}

// Stop tears the poll loop down and waits for it to exit. Pending timers
// are cleared, and the result of any in-flight fetch is discarded on
// arrival rather than applied to a defunct registry.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// State returns the scheduler's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ConsecutiveFailures returns the current failure streak on the polling
// channel.
func (e *Engine) ConsecutiveFailures() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failures
}

// Sessions returns one page of the registry's current snapshot.
func (e *Engine) Sessions(page, pageSize int) domain.SessionPage {
	return e.registry.Page(page, pageSize)
}

// Counters returns the last observed dashboard counters.
func (e *Engine) Counters() domain.DashboardCounters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counters
}

func (e *Engine) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	sessionTicker := e.clock.NewTicker(e.pollInterval)
	defer sessionTicker.Stop()
	countersTicker := e.clock.NewTicker(e.countersInterval)
	defer countersTicker.Stop()

	// Eager synchronization before the first tick: counters first so the
	// aggregate header renders, then the session list.
	if !e.pollCounters(ctx) || !e.pollSessions(ctx) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			e.transition(StateIdle)
			return
		case <-sessionTicker.Chan():
			if !e.pollSessions(ctx) {
				return
			}
		case <-countersTicker.Chan():
			if !e.pollCounters(ctx) {
				return
			}
		case <-e.refreshCh:
			// Out-of-band reconciliation requested after an invalidation.
			if !e.pollSessions(ctx) {
				return
			}
		}
	}
}

// pollSessions runs one session-list cycle. Returns false when the loop
// must exit (threshold reached or owner teardown).
func (e *Engine) pollSessions(ctx context.Context) bool {
	cycleCtx := correlation.WithID(ctx, correlation.NewID())

	start := e.clock.Now()
	sessions, err := e.gateway.FetchActiveSessions(cycleCtx)
	metrics.PollDuration.WithLabelValues(channelSessions).Observe(e.clock.Since(start).Seconds())

	if ctx.Err() != nil {
		// Torn down mid-fetch; the response belongs to a defunct registry.
		e.transition(StateIdle)
		return false
	}
	if err != nil {
		return e.recordFailure(cycleCtx, channelSessions, err)
	}

	applied := e.registry.Replace(sessions)
	e.recordSuccess(channelSessions)
	slog.DebugContext(cycleCtx, "Session registry replaced", "sessions", len(applied))

	if e.publisher != nil {
		e.publisher.PublishSessions(cycleCtx, applied)
	}
	if e.cache != nil {
		if err := e.cache.SaveSessions(cycleCtx, applied); err != nil {
			slog.WarnContext(cycleCtx, "Failed to cache session snapshot", "error", err)
		}
	}
	return true
}

// pollCounters runs one dashboard-counters cycle.
func (e *Engine) pollCounters(ctx context.Context) bool {
	cycleCtx := correlation.WithID(ctx, correlation.NewID())

	start := e.clock.Now()
	counters, err := e.gateway.FetchDashboardCounters(cycleCtx)
	metrics.PollDuration.WithLabelValues(channelCounters).Observe(e.clock.Since(start).Seconds())

	if ctx.Err() != nil {
		e.transition(StateIdle)
		return false
	}
	if err != nil {
		return e.recordFailure(cycleCtx, channelCounters, err)
	}

	e.mu.Lock()
	e.counters = counters
	e.mu.Unlock()
	e.recordSuccess(channelCounters)
	slog.DebugContext(cycleCtx, "Dashboard counters refreshed", "online", counters.OnlineSessions)

	if e.publisher != nil {
		e.publisher.PublishCounters(cycleCtx, counters)
	}
	if e.cache != nil {
		if err := e.cache.SaveCounters(cycleCtx, counters); err != nil {
			slog.WarnContext(cycleCtx, "Failed to cache counters snapshot", "error", err)
		}
	}
	return true
}

func (e *Engine) recordSuccess(channel string) {
	metrics.PollsTotal.WithLabelValues(channel, "success").Inc()

	e.mu.Lock()
	e.failures = 0
	e.mu.Unlock()
	metrics.ConsecutivePollFailures.Set(0)
}

// recordFailure counts one failed fetch against the shared streak. All
// error classes count identically; auth problems are additionally surfaced
// with a distinct notice level. Returns false once the threshold is hit.
func (e *Engine) recordFailure(ctx context.Context, channel string, err error) bool {
	metrics.PollsTotal.WithLabelValues(channel, "failure").Inc()

	e.mu.Lock()
	e.failures++
	failures := e.failures
	stopped := failures >= failureThreshold
	if stopped {
		e.setStateLocked(StateStopped)
	}
	e.mu.Unlock()
	metrics.ConsecutivePollFailures.Set(float64(failures))

	level := domain.NoticeError
	if apperrors.IsAuth(err) {
		level = domain.NoticeAuth
	}

	slog.WarnContext(ctx, "Poll cycle failed",
		"channel", channel,
		"consecutive_failures", failures,
		"error", err)

	if stopped {
		slog.ErrorContext(ctx, "Poll scheduler stopped after repeated failures", "failures", failures)
		e.notify(ctx, level, "Live session view paused after repeated failures; reload to resume.", "")
		return false
	}

	e.notify(ctx, level, apperrors.OperatorMessage(err), "")
	return true
}

// Invalidate forcibly terminates one session via the remote authority and
// reconciles local state with the server-confirmed outcome. A confirmed
// success removes the entry immediately instead of waiting for the next
// poll; any failure leaves the registry untouched. Outcomes here are
// surfaced synchronously and never counted against the poll scheduler:
// that counter tracks the polling channel exclusively.
func (e *Engine) Invalidate(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.ValidationError("session id is required")
	}
	ctx = correlation.WithID(ctx, correlation.NewID())

	if err := e.gateway.InvalidateSession(ctx, id); err != nil {
		metrics.InvalidationsTotal.WithLabelValues(string(domain.InvalidationFailed)).Inc()

		level := domain.NoticeError
		if apperrors.IsAuth(err) {
			level = domain.NoticeAuth
		}
		message := apperrors.OperatorMessage(err)
		e.notify(ctx, level, fmt.Sprintf("Failed to log out session: %s", message), id)
		e.recordAudit(ctx, domain.InvalidationRecord{
			SessionID: id,
			Outcome:   domain.InvalidationFailed,
			Message:   message,
		})

		slog.WarnContext(ctx, "Session invalidation failed", "session_id", id, "error", err)
		return err
	}

	removed, known := e.registry.Remove(id)
	subject := id
	if known && removed.DisplayName != "" {
		subject = removed.DisplayName
	}

	metrics.InvalidationsTotal.WithLabelValues(string(domain.InvalidationSucceeded)).Inc()
	e.notify(ctx, domain.NoticeSuccess, fmt.Sprintf("Logged out %s", subject), id)
	e.recordAudit(ctx, domain.InvalidationRecord{
		SessionID:   id,
		Username:    removed.Username,
		DisplayName: removed.DisplayName,
		Outcome:     domain.InvalidationSucceeded,
	})

	if e.publisher != nil {
		e.publisher.PublishSessions(ctx, e.registry.Snapshot())
	}

	// Reconcile with server truth at the next convenient moment; the next
	// poll is authoritative either way.
	e.requestRefresh()

	slog.InfoContext(ctx, "Session invalidated", "session_id", id)
	return nil
}

// requestRefresh nudges the poll loop without blocking. A nudge that finds
// one already pending is dropped.
func (e *Engine) requestRefresh() {
	select {
	case e.refreshCh <- struct{}{}:
	default:
	}
}

func (e *Engine) recordAudit(ctx context.Context, rec domain.InvalidationRecord) {
	if e.auditor == nil {
		return
	}
	rec.ID = uuid.New()
	rec.CreatedAt = e.clock.Now()
	if err := e.auditor.Record(ctx, rec); err != nil {
		metrics.AuditWritesTotal.WithLabelValues("failure").Inc()
		slog.WarnContext(ctx, "Failed to record invalidation audit entry", "session_id", rec.SessionID, "error", err)
		return
	}
	metrics.AuditWritesTotal.WithLabelValues("success").Inc()
}

func (e *Engine) notify(ctx context.Context, level domain.NoticeLevel, message, sessionID string) {
	metrics.NoticesTotal.WithLabelValues(string(level)).Inc()
	if e.publisher == nil {
		return
	}
	e.publisher.PublishNotice(ctx, domain.Notice{
		Level:     level,
		Message:   message,
		SessionID: sessionID,
		Time:      e.clock.Now(),
	})
}

func (e *Engine) transition(s State) {
	e.mu.Lock()
	e.setStateLocked(s)
	e.mu.Unlock()
}

func (e *Engine) setStateLocked(s State) {
	e.state = s
	switch s {
	case StateIdle:
		metrics.SchedulerState.Set(0)
	case StatePolling:
		metrics.SchedulerState.Set(1)
	case StateStopped:
		metrics.SchedulerState.Set(2)
	}
}
