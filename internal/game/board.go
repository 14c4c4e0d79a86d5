package game

// BoardSize is the number of cells on a tic-tac-toe board.
const BoardSize = 9

// Mark is a player's symbol. The zero value is an empty cell.
type Mark string

const (
	MarkNone Mark = ""
	MarkX    Mark = "X"
	MarkO    Mark = "O"
)

// Valid reports whether m is one of the two playable marks.
func (m Mark) Valid() bool {
	return m == MarkX || m == MarkO
}

// Other returns the opposing mark. Other of an empty mark is empty.
func (m Mark) Other() Mark {
	switch m {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	}
	return MarkNone
}

// Phase is a match lifecycle stage.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"  // only the first player is present
	PhasePlaying  Phase = "playing"  // both present, no terminal condition yet
	PhaseFinished Phase = "finished" // winner or draw detected
)

// Outcome is the result of a finished match. Empty means the match is
// still in progress.
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeX    Outcome = "X"
	OutcomeO    Outcome = "O"
	OutcomeDraw Outcome = "draw"
)

// Board is the 9-cell grid, row-major from the top left. It marshals as a
// JSON array of strings, matching the client's representation.
type Board [BoardSize]Mark

// winningLines are the 8 completed triples, scanned rows first, then
// columns, then diagonals. Scan order is the tie-break contract.
var winningLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
	{0, 4, 8}, {2, 4, 6}, // diagonals
}

// Full reports whether every cell is occupied.
func (b Board) Full() bool {
	for _, c := range b {
		if c == MarkNone {
			return false
		}
	}
	return true
}

// Winner returns the mark holding a completed line, or MarkNone. The first
// matching line in scan order decides.
func (b Board) Winner() Mark {
	for _, line := range winningLines {
		a := b[line[0]]
		if a != MarkNone && a == b[line[1]] && a == b[line[2]] {
			return a
		}
	}
	return MarkNone
}

// Evaluate returns the outcome for the board. A completed line wins for its
// mark; a full board with no line is a draw; otherwise the match continues
// and the outcome is OutcomeNone.
func (b Board) Evaluate() Outcome {
	if w := b.Winner(); w != MarkNone {
		return Outcome(w)
	}
	if b.Full() {
		return OutcomeDraw
	}
	return OutcomeNone
}

// Diff counts the cells where b and prev differ. Used by strict move
// validation to check that exactly one cell changed.
func (b Board) Diff(prev Board) int {
	n := 0
	for i := range b {
		if b[i] != prev[i] {
			n++
		}
	}
	return n
}
