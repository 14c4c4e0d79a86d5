package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_Winner_EveryLine(t *testing.T) {
	lines := [][3]int{
		{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
		{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
		{0, 4, 8}, {2, 4, 6},
	}

	for _, mark := range []Mark{MarkX, MarkO} {
		for _, line := range lines {
			var b Board
			for _, i := range line {
				b[i] = mark
			}
			assert.Equal(t, mark, b.Winner(), "line %v for %s", line, mark)
			assert.Equal(t, Outcome(mark), b.Evaluate())
		}
	}
}

func TestBoard_Winner_Empty(t *testing.T) {
	var b Board
	assert.Equal(t, MarkNone, b.Winner())
	assert.Equal(t, OutcomeNone, b.Evaluate())
}

func TestBoard_Evaluate_Draw(t *testing.T) {
	// X O X
	// X O O
	// O X X
	b := Board{
		MarkX, MarkO, MarkX,
		MarkX, MarkO, MarkO,
		MarkO, MarkX, MarkX,
	}
	require.Equal(t, MarkNone, b.Winner(), "draw board must have no winner")
	assert.True(t, b.Full())
	assert.Equal(t, OutcomeDraw, b.Evaluate())
}

func TestBoard_Evaluate_InProgress(t *testing.T) {
	b := Board{MarkX, MarkO, MarkX}
	assert.False(t, b.Full())
	assert.Equal(t, OutcomeNone, b.Evaluate())
}

func TestBoard_Winner_ScanOrder(t *testing.T) {
	// Two completed lines for the same mark; the top row is scanned first.
	b := Board{
		MarkX, MarkX, MarkX,
		MarkO, MarkO, MarkNone,
		MarkX, MarkX, MarkX,
	}
	assert.Equal(t, MarkX, b.Winner())
}

func TestMark_Other(t *testing.T) {
	assert.Equal(t, MarkO, MarkX.Other())
	assert.Equal(t, MarkX, MarkO.Other())
	assert.Equal(t, MarkNone, MarkNone.Other())
}

func TestMark_Valid(t *testing.T) {
	assert.True(t, MarkX.Valid())
	assert.True(t, MarkO.Valid())
	assert.False(t, MarkNone.Valid())
	assert.False(t, Mark("Z").Valid())
}

func TestBoard_Diff(t *testing.T) {
	var prev Board
	next := prev
	next[4] = MarkX

	assert.Equal(t, 0, prev.Diff(prev))
	assert.Equal(t, 1, next.Diff(prev))

	next[5] = MarkO
	assert.Equal(t, 2, next.Diff(prev))
}
