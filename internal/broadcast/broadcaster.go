// Package broadcast fans engine state out to connected consoles over
// WebSocket: registry snapshots, dashboard counters, and operator notices.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/sanohind/sessiondeck/internal/domain"
	"github.com/sanohind/sessiondeck/internal/metrics"
)

const (
	commandTimeout  = 5 * time.Second
	stopTimeout     = 10 * time.Second
	commandBuffer   = 256
	defaultMaxConns = 64
)

// Event is the wire frame pushed to consoles.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	EventSessions = "sessions"
	EventCounters = "counters"
	EventNotice   = "notice"
)

// broadcasterCmd is the command interface for the Broadcaster actor.
type broadcasterCmd interface{ isBroadcasterCmd() }

type baseBroadcasterCmd struct{}

func (baseBroadcasterCmd) isBroadcasterCmd() {}

type registerCmd struct {
	baseBroadcasterCmd
	connection   *websocket.Conn
	errorChannel chan error
}

type unregisterCmd struct {
	baseBroadcasterCmd
	connection *websocket.Conn
}

type clientCountCmd struct {
	baseBroadcasterCmd
	replyChannel chan int
}

type publishCmd struct {
	baseBroadcasterCmd
	eventType string
	frame     []byte
}

type stopCmd struct {
	baseBroadcasterCmd
}

// Broadcaster owns all console connections on a single actor goroutine.
// There is one stream: every connected console sees the same events. New
// connections are primed with the latest sessions and counters frames so
// the console is not blank until the next poll.
type Broadcaster struct {
	cmdCh      chan broadcasterCmd
	clock      clockwork.Clock
	clients    map[*websocket.Conn]*clientWriter
	done       chan struct{}
	maxClients int

	// Actor-local; only touched inside run().
	lastSessions []byte
	lastCounters []byte
}

var _ domain.SnapshotPublisher = (*Broadcaster)(nil)

func New(clock clockwork.Clock, maxClients int) *Broadcaster {
	if maxClients <= 0 {
		maxClients = defaultMaxConns
	}
	b := &Broadcaster{
		cmdCh:      make(chan broadcasterCmd, commandBuffer),
		clock:      clock,
		clients:    make(map[*websocket.Conn]*clientWriter),
		done:       make(chan struct{}),
		maxClients: maxClients,
	}
	go b.run()
	return b
}

// Register adds a console connection. Returns an error when the connection
// cap is reached or the actor is unresponsive.
func (b *Broadcaster) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	b.cmdCh <- registerCmd{connection: conn, errorChannel: errCh}

	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a console connection.
func (b *Broadcaster) Unregister(conn *websocket.Conn) {
	b.cmdCh <- unregisterCmd{connection: conn}
}

// ClientCount returns the number of connected consoles, or -1 if the actor
// is unresponsive.
func (b *Broadcaster) ClientCount() int {
	replyCh := make(chan int, 1)
	b.cmdCh <- clientCountCmd{replyChannel: replyCh}

	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// PublishSessions pushes the full deduplicated session list to all consoles.
func (b *Broadcaster) PublishSessions(ctx context.Context, sessions []domain.Session) {
	b.publish(ctx, EventSessions, sessions)
}

// PublishCounters pushes the aggregate dashboard counters to all consoles.
func (b *Broadcaster) PublishCounters(ctx context.Context, counters domain.DashboardCounters) {
	b.publish(ctx, EventCounters, counters)
}

// PublishNotice pushes one operator notification to all consoles.
func (b *Broadcaster) PublishNotice(ctx context.Context, notice domain.Notice) {
	b.publish(ctx, EventNotice, notice)
}

// publish hands a frame to the actor without ever blocking the caller: the
// engine's poll loop must not stall on a congested broadcaster. A frame
// that finds the command channel full is dropped; the next poll supersedes
// it anyway.
func (b *Broadcaster) publish(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal broadcast payload", "type", eventType, "error", err)
		return
	}
	frame, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal broadcast frame", "type", eventType, "error", err)
		return
	}

	select {
	case b.cmdCh <- publishCmd{eventType: eventType, frame: frame}:
	default:
		slog.WarnContext(ctx, "Broadcast frame dropped: command channel full", "type", eventType)
	}
}

// Stop shuts the broadcaster down, closing all console connections. Blocks
// until the actor goroutine has exited or the timeout is reached.
func (b *Broadcaster) Stop() {
	b.cmdCh <- stopCmd{}

	timer := b.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-b.done:
		slog.Info("Broadcaster stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Broadcaster stop timeout exceeded, forcing exit", "timeout", stopTimeout)
		close(b.done)
	}
}

func (b *Broadcaster) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Broadcaster panic recovered", "panic", r)
			b.closeAllClients("broadcaster failure")
		}
	}()
	defer close(b.done)

	for cmd := range b.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			b.handleRegister(c)
		case unregisterCmd:
			b.handleUnregister(c.connection)
		case clientCountCmd:
			c.replyChannel <- len(b.clients)
		case publishCmd:
			b.handlePublish(c)
		case stopCmd:
			b.handleStop()
			return
		default:
			slog.Warn("Broadcaster received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (b *Broadcaster) handleRegister(c registerCmd) {
	if len(b.clients) >= b.maxClients {
		slog.Warn("Rejecting console: connection cap reached", "max_clients", b.maxClients)
		c.connection.Close()
		c.errorChannel <- fmt.Errorf("max console connections (%d) reached", b.maxClients)
		return
	}

	cw := newClientWriter(c.connection, b.clock)
	b.clients[c.connection] = cw
	metrics.BroadcasterConnectedClients.Inc()

	// Prime the new console with the latest known state.
	if b.lastCounters != nil {
		cw.trySend(b.lastCounters)
	}
	if b.lastSessions != nil {
		cw.trySend(b.lastSessions)
	}

	slog.Debug("Console registered", "total_clients", len(b.clients))
	c.errorChannel <- nil
}

func (b *Broadcaster) handleUnregister(conn *websocket.Conn) {
	cw, exists := b.clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(b.clients, conn)
	metrics.BroadcasterConnectedClients.Dec()

	slog.Debug("Console unregistered", "remaining_clients", len(b.clients))
}

func (b *Broadcaster) handlePublish(c publishCmd) {
	switch c.eventType {
	case EventSessions:
		b.lastSessions = c.frame
	case EventCounters:
		b.lastCounters = c.frame
	}

	var slow []*websocket.Conn
	for conn, cw := range b.clients {
		if !cw.trySend(c.frame) {
			slow = append(slow, conn)
		}
	}

	// A console that cannot keep up with snapshot cadence is evicted rather
	// than allowed to stall everyone else.
	for _, conn := range slow {
		slog.Warn("Disconnecting slow console")
		metrics.BroadcasterSlowClientsEvicted.Inc()
		b.handleUnregister(conn)
	}
}

func (b *Broadcaster) handleStop() {
	total := len(b.clients)
	slog.Info("Broadcaster shutting down", "clients", total)
	b.closeAllClients("Server shutting down")
	slog.Info("Broadcaster shutdown complete", "disconnected_clients", total)
}

func (b *Broadcaster) closeAllClients(reason string) {
	for conn, cw := range b.clients {
		cw.stopGraceful(reason)
		delete(b.clients, conn)
		metrics.BroadcasterConnectedClients.Dec()
	}
}
