package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/dmoretti/tictac-server/internal/game"
)

// MessageType discriminates envelopes. Inbound types come from clients,
// outbound types from the hub.
type MessageType string

// Inbound message types.
const (
	TypeCreate MessageType = "create"
	TypeJoin   MessageType = "join"
	TypeMove   MessageType = "move"
)

// Outbound message types.
const (
	TypeCreated              MessageType = "created"
	TypeJoinError            MessageType = "join-error"
	TypeJoined               MessageType = "joined"
	TypeJoinSuccess          MessageType = "join-success"
	TypeMoveError            MessageType = "move-error"
	TypeMoveMade             MessageType = "move-made"
	TypeOpponentDisconnected MessageType = "opponent-disconnected"
)

// Envelope is the wire frame: a type tag plus one payload shape per type.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CreateRequest asks for a new session.
type CreateRequest struct {
	FirstPlayerName string `json:"firstPlayerName"`
}

// CreatedReply confirms session creation to the requester only.
type CreatedReply struct {
	SessionID       string `json:"sessionId"`
	FirstPlayerName string `json:"firstPlayerName"`
}

// JoinRequest asks to join an existing session as the second player.
type JoinRequest struct {
	SessionID        string `json:"sessionId"`
	SecondPlayerName string `json:"secondPlayerName"`
}

// JoinSuccess is the full snapshot returned to a joiner.
type JoinSuccess struct {
	SessionID        string `json:"sessionId"`
	FirstPlayerName  string `json:"firstPlayerName"`
	SecondPlayerName string `json:"secondPlayerName"`
}

// MoveRequest submits a move. Board is the full 9-cell snapshot as seen by
// the mover; the server stores it after validating turn legality.
type MoveRequest struct {
	SessionID string     `json:"sessionId"`
	MoveIndex int        `json:"moveIndex"`
	Board     game.Board `json:"board"`
	Mark      game.Mark  `json:"mark"`
}

// MoveBroadcast is the state delta fanned out to both occupants after an
// accepted move.
type MoveBroadcast struct {
	Board      game.Board   `json:"board"`
	ActiveMark game.Mark    `json:"activeMark"`
	Outcome    game.Outcome `json:"outcome,omitempty"`
	Phase      game.Phase   `json:"phase"`
}

// ErrorReply carries a recoverable failure reason to the requester only.
type ErrorReply struct {
	Message string `json:"message"`
}

// Encode wraps a payload in an envelope and marshals it.
func Encode(t MessageType, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", t, err)
		}
		raw = data
	}
	return json.Marshal(Envelope{Type: t, Payload: raw})
}

// DecodeEnvelope parses the outer frame without touching the payload.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("parse envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("envelope missing type")
	}
	return env, nil
}

// DecodeCreate parses a create payload. Names are not required; a session
// can be created for an anonymous player.
func DecodeCreate(payload json.RawMessage) (CreateRequest, error) {
	var req CreateRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return CreateRequest{}, fmt.Errorf("parse create payload: %w", err)
	}
	return req, nil
}

// DecodeJoin parses a join payload. An unknown or empty session id is left
// for the registry, which treats it as not found.
func DecodeJoin(payload json.RawMessage) (JoinRequest, error) {
	var req JoinRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return JoinRequest{}, fmt.Errorf("parse join payload: %w", err)
	}
	return req, nil
}

// DecodeMove validates and parses a move payload. A missing or malformed
// session id is left for the registry, which treats it as not found.
func DecodeMove(payload json.RawMessage) (MoveRequest, error) {
	var req MoveRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return MoveRequest{}, fmt.Errorf("parse move payload: %w", err)
	}
	if req.MoveIndex < 0 || req.MoveIndex >= game.BoardSize {
		return MoveRequest{}, fmt.Errorf("move: moveIndex %d out of range", req.MoveIndex)
	}
	if !req.Mark.Valid() {
		return MoveRequest{}, fmt.Errorf("move: invalid mark %q", req.Mark)
	}
	for i, c := range req.Board {
		if c != game.MarkNone && !c.Valid() {
			return MoveRequest{}, fmt.Errorf("move: invalid cell %q at %d", c, i)
		}
	}
	return req, nil
}
