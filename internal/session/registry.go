package session

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dmoretti/tictac-server/internal/game"
)

// Errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionFull     = errors.New("session is full")
	ErrOutOfTurn       = errors.New("not your turn")
	ErrSessionFinished = errors.New("session already finished")
	ErrInvalidMove     = errors.New("invalid move")
)

// Session is one two-player match. The second player name is empty until
// someone joins.
type Session struct {
	ID               string
	FirstPlayerName  string
	SecondPlayerName string
	Occupancy        int
	Board            game.Board
	ActiveMark       game.Mark
	Phase            game.Phase
	Outcome          game.Outcome
}

// Delta is the state broadcast to both occupants after an accepted move.
type Delta struct {
	Board      game.Board
	ActiveMark game.Mark
	Outcome    game.Outcome
	Phase      game.Phase
}

// Config holds Session Registry settings.
type Config struct {
	// StrictMoves enables server-side verification that a submitted board
	// changed exactly one previously-empty cell to the mover's mark. Off by
	// default: the original contract trusts the mover's snapshot.
	StrictMoves bool
}

// Registry owns the id → session map.
type Registry struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty Session Registry.
func NewRegistry(cfg Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Create inserts a new waiting session for the first player and returns a
// snapshot of it. The id is a freshly generated 128-bit random token.
func (r *Registry) Create(firstPlayerName string) Session {
	s := &Session{
		ID:              uuid.NewString(),
		FirstPlayerName: firstPlayerName,
		Occupancy:       1,
		ActiveMark:      game.MarkX,
		Phase:           game.PhaseWaiting,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.logger.Info("session created", "session_id", s.ID, "player", firstPlayerName)
	return *s
}

// Join adds the second player to a waiting session and moves it to the
// playing phase. Returns the full snapshot for the joiner.
func (r *Registry) Join(id, secondPlayerName string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if s.Occupancy >= 2 {
		return Session{}, ErrSessionFull
	}

	s.SecondPlayerName = secondPlayerName
	s.Occupancy = 2
	s.Phase = game.PhasePlaying

	r.logger.Info("session joined", "session_id", id, "player", secondPlayerName)
	return *s, nil
}

// ApplyMove validates turn legality, stores the mover's board, flips the
// active mark, and evaluates termination. No state is mutated on error.
func (r *Registry) ApplyMove(id string, moveIndex int, board game.Board, mark game.Mark) (Delta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return Delta{}, ErrSessionNotFound
	}
	if s.Phase == game.PhaseFinished {
		return Delta{}, ErrSessionFinished
	}
	if mark != s.ActiveMark {
		return Delta{}, ErrOutOfTurn
	}
	if r.cfg.StrictMoves {
		if err := validateMove(s.Board, board, moveIndex, mark); err != nil {
			return Delta{}, err
		}
	}

	s.Board = board
	s.ActiveMark = mark.Other()

	if outcome := board.Evaluate(); outcome != game.OutcomeNone {
		s.Outcome = outcome
		s.Phase = game.PhaseFinished
		r.logger.Info("session finished",
			"session_id", id,
			"outcome", string(outcome),
		)
	}

	return Delta{
		Board:      s.Board,
		ActiveMark: s.ActiveMark,
		Outcome:    s.Outcome,
		Phase:      s.Phase,
	}, nil
}

// validateMove checks that the submitted board is the stored board plus
// exactly one new cell, at moveIndex, holding the mover's mark.
func validateMove(prev, next game.Board, moveIndex int, mark game.Mark) error {
	if moveIndex < 0 || moveIndex >= game.BoardSize {
		return ErrInvalidMove
	}
	if next.Diff(prev) != 1 {
		return ErrInvalidMove
	}
	if prev[moveIndex] != game.MarkNone || next[moveIndex] != mark {
		return ErrInvalidMove
	}
	return nil
}

// Get returns a snapshot of the session, if present.
func (r *Registry) Get(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Destroy removes a session. Removing an absent id is a no-op; the grace
// timer and a disconnect may both fire for the same session.
func (r *Registry) Destroy(id string) {
	r.mu.Lock()
	_, existed := r.sessions[id]
	delete(r.sessions, id)
	count := len(r.sessions)
	r.mu.Unlock()

	if existed {
		r.logger.Info("session destroyed", "session_id", id, "active_sessions", count)
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
