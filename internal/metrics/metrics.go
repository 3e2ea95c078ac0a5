// Package metrics holds the prometheus instruments for the session console.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Poll scheduler metrics
var (
	// PollsTotal tracks poll cycles by logical channel and outcome
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_cycles_total",
			Help: "Total poll cycles by channel (sessions/counters) and status",
		},
		[]string{"channel", "status"},
	)

	// PollDuration tracks poll cycle latency in seconds
	PollDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poll_cycle_duration_seconds",
			Help:    "Poll cycle duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"channel"},
	)

	// SchedulerState tracks the poll scheduler state (0=idle, 1=polling, 2=stopped)
	SchedulerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poll_scheduler_state",
			Help: "Current poll scheduler state (0=idle, 1=polling, 2=stopped)",
		},
	)

	// ConsecutivePollFailures tracks the scheduler's failure streak
	ConsecutivePollFailures = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poll_consecutive_failures",
			Help: "Consecutive failed poll cycles since the last success",
		},
	)
)

// Registry metrics
var (
	// RegistrySessions tracks the deduplicated registry size
	RegistrySessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_sessions",
			Help: "Number of sessions currently held in the registry",
		},
	)

	// RegistryDuplicatesDropped tracks duplicate entries removed by the merge step
	RegistryDuplicatesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_duplicates_dropped_total",
			Help: "Total duplicate session entries dropped during merge",
		},
	)
)

// Invalidation metrics
var (
	// InvalidationsTotal tracks forced logouts by outcome
	InvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invalidations_total",
			Help: "Total session invalidations by outcome",
		},
		[]string{"outcome"},
	)

	// NoticesTotal tracks operator notifications by level
	NoticesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "operator_notices_total",
			Help: "Total operator notices emitted by level",
		},
		[]string{"level"},
	)
)

// Broadcaster metrics
var (
	// BroadcasterConnectedClients tracks connected console WebSocket clients
	BroadcasterConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcaster_connected_clients",
			Help: "Number of connected console WebSocket clients",
		},
	)

	// BroadcasterSlowClientsEvicted tracks slow clients dropped on buffer overflow
	BroadcasterSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcaster_slow_clients_evicted_total",
			Help: "Total slow WebSocket clients evicted due to full send buffer",
		},
	)

	// WebSocketPingFailures tracks failed keepalive pings
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total failed WebSocket keepalive pings",
		},
	)
)

// Snapshot cache metrics
var (
	// SnapshotCacheOpsTotal tracks snapshot cache operations by name and status
	SnapshotCacheOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_cache_operations_total",
			Help: "Total snapshot cache operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// Audit metrics
var (
	// AuditWritesTotal tracks audit trail writes by status
	AuditWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_writes_total",
			Help: "Total invalidation audit writes by status",
		},
		[]string{"status"},
	)
)
