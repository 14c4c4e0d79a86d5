package hub

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dmoretti/tictac-server/internal/game"
	"github.com/dmoretti/tictac-server/internal/metrics"
	"github.com/dmoretti/tictac-server/internal/protocol"
	"github.com/dmoretti/tictac-server/internal/session"
)

// Hub routes client messages to the Session Registry and broadcasts the
// results. Create one per process.
type Hub struct {
	cfg      Config
	registry *session.Registry
	logger   *slog.Logger

	events chan event

	// peerCount shadows len(peers) for readers outside the run loop.
	peerCount atomic.Int64

	// Run-loop state. Touched only by the run loop goroutine.
	peers       map[string]Peer   // peer id → connection
	peerSession map[string]string // peer id → session id
	groups      map[string][]string
}

// New creates a Hub over the given registry.
func New(cfg Config, registry *session.Registry, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}

	return &Hub{
		cfg:         cfg,
		registry:    registry,
		logger:      logger,
		events:      make(chan event, cfg.EventBuffer),
		peers:       make(map[string]Peer),
		peerSession: make(map[string]string),
		groups:      make(map[string][]string),
	}
}

// Run processes events until ctx is canceled. It is the only goroutine that
// touches hub state.
func (h *Hub) Run(ctx context.Context) error {
	h.logger.Info("hub started", "grace_delay", h.cfg.GraceDelay)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub stopped",
				"connected_peers", len(h.peers),
				"active_sessions", h.registry.Len(),
			)
			return nil
		case ev := <-h.events:
			h.process(ev)
		}
	}
}

// Connect registers a new peer with the hub.
func (h *Hub) Connect(p Peer) {
	h.enqueue(event{kind: evConnect, peer: p})
}

// Disconnect reports that a peer's connection dropped.
func (h *Hub) Disconnect(p Peer) {
	h.enqueue(event{kind: evDisconnect, peer: p})
}

// Receive hands an inbound frame from a peer to the hub.
func (h *Hub) Receive(p Peer, data []byte) {
	h.enqueue(event{kind: evMessage, peer: p, data: data})
}

// Stats returns the current occupancy snapshot. Safe to call from any
// goroutine.
func (h *Hub) Stats() Stats {
	return Stats{
		ConnectedPeers: int(h.peerCount.Load()),
		ActiveSessions: h.registry.Len(),
	}
}

// enqueue adds an event, dropping with a warning when the queue is full so
// transport goroutines never block on the hub.
func (h *Hub) enqueue(ev event) {
	select {
	case h.events <- ev:
	default:
		h.logger.Warn("event queue full, dropping event", "kind", ev.kind)
	}
}

func (h *Hub) process(ev event) {
	switch ev.kind {
	case evConnect:
		h.handleConnect(ev.peer)
	case evDisconnect:
		h.handleDisconnect(ev.peer)
	case evMessage:
		h.handleMessage(ev.peer, ev.data)
	case evExpire:
		h.handleExpire(ev.session)
	}
}

func (h *Hub) handleConnect(p Peer) {
	h.peers[p.ID()] = p
	h.peerCount.Store(int64(len(h.peers)))
	metrics.ConnectedPeers.Set(float64(len(h.peers)))
	h.logger.Debug("peer connected", "peer_id", p.ID())
}

// handleDisconnect notifies the remaining occupant and destroys the bound
// session immediately; a peer with no session is just deregistered.
func (h *Hub) handleDisconnect(p Peer) {
	delete(h.peers, p.ID())
	h.peerCount.Store(int64(len(h.peers)))
	metrics.ConnectedPeers.Set(float64(len(h.peers)))

	id, bound := h.peerSession[p.ID()]
	if !bound {
		h.logger.Debug("peer disconnected", "peer_id", p.ID())
		return
	}

	h.logger.Info("peer disconnected from session", "peer_id", p.ID(), "session_id", id)

	notice := protocol.ErrorReply{Message: "Your opponent has disconnected"}
	for _, pid := range h.groups[id] {
		if pid == p.ID() {
			continue
		}
		if other, ok := h.peers[pid]; ok {
			h.send(other, protocol.TypeOpponentDisconnected, notice)
		}
	}

	h.destroySession(id, "disconnect")
}

func (h *Hub) handleMessage(p Peer, data []byte) {
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		h.logger.Warn("malformed message", "peer_id", p.ID(), "error", err)
		metrics.MessagesRejected.WithLabelValues("malformed").Inc()
		return
	}

	switch env.Type {
	case protocol.TypeCreate:
		h.handleCreate(p, env.Payload)
	case protocol.TypeJoin:
		h.handleJoin(p, env.Payload)
	case protocol.TypeMove:
		h.handleMove(p, env.Payload)
	default:
		h.logger.Warn("unknown message type", "peer_id", p.ID(), "type", env.Type)
		metrics.MessagesRejected.WithLabelValues("unknown_type").Inc()
	}
}

func (h *Hub) handleCreate(p Peer, payload []byte) {
	req, err := protocol.DecodeCreate(payload)
	if err != nil {
		// No create-error message exists in the vocabulary; the request
		// simply produces nothing.
		h.logger.Warn("malformed create", "peer_id", p.ID(), "error", err)
		metrics.MessagesRejected.WithLabelValues("malformed").Inc()
		return
	}

	s := h.registry.Create(req.FirstPlayerName)
	h.bind(p.ID(), s.ID)
	metrics.SessionsCreated.Inc()
	metrics.ActiveSessions.Set(float64(h.registry.Len()))

	h.send(p, protocol.TypeCreated, protocol.CreatedReply{
		SessionID:       s.ID,
		FirstPlayerName: s.FirstPlayerName,
	})
}

func (h *Hub) handleJoin(p Peer, payload []byte) {
	req, err := protocol.DecodeJoin(payload)
	if err != nil {
		h.logger.Warn("malformed join", "peer_id", p.ID(), "error", err)
		metrics.MessagesRejected.WithLabelValues("malformed").Inc()
		h.send(p, protocol.TypeJoinError, protocol.ErrorReply{Message: "Malformed join request"})
		return
	}

	s, err := h.registry.Join(req.SessionID, req.SecondPlayerName)
	if err != nil {
		metrics.MessagesRejected.WithLabelValues(rejectReason(err)).Inc()
		h.send(p, protocol.TypeJoinError, protocol.ErrorReply{Message: errorMessage(err)})
		return
	}

	// Notify the first player before binding the joiner, so the joined
	// notice never reaches the requester.
	for _, pid := range h.groups[s.ID] {
		if other, ok := h.peers[pid]; ok {
			h.send(other, protocol.TypeJoined, s.SecondPlayerName)
		}
	}

	h.bind(p.ID(), s.ID)
	metrics.SessionsJoined.Inc()

	h.send(p, protocol.TypeJoinSuccess, protocol.JoinSuccess{
		SessionID:        s.ID,
		FirstPlayerName:  s.FirstPlayerName,
		SecondPlayerName: s.SecondPlayerName,
	})
}

func (h *Hub) handleMove(p Peer, payload []byte) {
	req, err := protocol.DecodeMove(payload)
	if err != nil {
		h.logger.Warn("malformed move", "peer_id", p.ID(), "error", err)
		metrics.MessagesRejected.WithLabelValues("malformed").Inc()
		h.send(p, protocol.TypeMoveError, protocol.ErrorReply{Message: "Malformed move request"})
		return
	}

	delta, err := h.registry.ApplyMove(req.SessionID, req.MoveIndex, req.Board, req.Mark)
	if err != nil {
		metrics.MessagesRejected.WithLabelValues(rejectReason(err)).Inc()
		h.send(p, protocol.TypeMoveError, protocol.ErrorReply{Message: errorMessage(err)})
		return
	}

	metrics.MovesApplied.Inc()

	// Broadcast to the whole group, mover included, so a diverged client
	// resynchronizes its board.
	h.broadcast(req.SessionID, protocol.TypeMoveMade, protocol.MoveBroadcast{
		Board:      delta.Board,
		ActiveMark: delta.ActiveMark,
		Outcome:    delta.Outcome,
		Phase:      delta.Phase,
	})

	if delta.Phase == game.PhaseFinished {
		metrics.SessionsFinished.WithLabelValues(string(delta.Outcome)).Inc()
		h.scheduleExpire(req.SessionID)
	}
}

// handleExpire fires when the post-finish grace delay elapses. The session
// may already be gone if an occupant disconnected first.
func (h *Hub) handleExpire(id string) {
	if _, live := h.registry.Get(id); !live {
		return
	}
	h.destroySession(id, "grace_elapsed")
}

// scheduleExpire arranges cleanup after the grace delay. The timer is never
// canceled; destruction is idempotent instead.
func (h *Hub) scheduleExpire(id string) {
	h.logger.Debug("scheduling session cleanup", "session_id", id, "delay", h.cfg.GraceDelay)
	time.AfterFunc(h.cfg.GraceDelay, func() {
		h.enqueue(event{kind: evExpire, session: id})
	})
}

// destroySession removes the session and every binding pointing at it.
func (h *Hub) destroySession(id, reason string) {
	h.registry.Destroy(id)
	for _, pid := range h.groups[id] {
		delete(h.peerSession, pid)
	}
	delete(h.groups, id)

	metrics.SessionsDestroyed.WithLabelValues(reason).Inc()
	metrics.ActiveSessions.Set(float64(h.registry.Len()))
}

// bind is the single place the peer ↔ session association changes, keeping
// the two maps in step.
func (h *Hub) bind(peerID, sessionID string) {
	h.peerSession[peerID] = sessionID
	h.groups[sessionID] = append(h.groups[sessionID], peerID)
}

// send encodes and delivers one frame to one peer.
func (h *Hub) send(p Peer, t protocol.MessageType, payload any) {
	data, err := protocol.Encode(t, payload)
	if err != nil {
		h.logger.Error("encode message", "type", t, "error", err)
		return
	}
	if err := p.Send(data); err != nil {
		h.logger.Warn("send failed", "peer_id", p.ID(), "type", t, "error", err)
	}
}

// broadcast delivers one frame to every occupant of a session.
func (h *Hub) broadcast(sessionID string, t protocol.MessageType, payload any) {
	for _, pid := range h.groups[sessionID] {
		if p, ok := h.peers[pid]; ok {
			h.send(p, t, payload)
		}
	}
}

// errorMessage maps registry errors to client-facing reasons.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return "Game not found"
	case errors.Is(err, session.ErrSessionFull):
		return "Game is full"
	case errors.Is(err, session.ErrOutOfTurn):
		return "Not your turn"
	case errors.Is(err, session.ErrSessionFinished):
		return "Game already finished"
	case errors.Is(err, session.ErrInvalidMove):
		return "Invalid move"
	}
	return "Internal error"
}

// rejectReason maps registry errors to metric labels.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return "not_found"
	case errors.Is(err, session.ErrSessionFull):
		return "full"
	case errors.Is(err, session.ErrOutOfTurn):
		return "out_of_turn"
	case errors.Is(err, session.ErrSessionFinished):
		return "finished"
	case errors.Is(err, session.ErrInvalidMove):
		return "invalid_move"
	}
	return "unknown"
}
