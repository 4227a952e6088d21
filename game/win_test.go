package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// testCard builds a card with a predictable layout: column c holds
// c*15+1 .. c*15+5 top to bottom, free center cell zeroed.
func testCard(id int) *Card {
	card := &Card{ID: id}
	for col := 0; col < 5; col++ {
		for row := 0; row < 5; row++ {
			card.Columns[col][row] = col*15 + row + 1
		}
	}
	card.Columns[FreeCol][FreeRow] = 0
	return card
}

func drawnSet(nums ...int) map[int]bool {
	drawn := make(map[int]bool, len(nums))
	for _, n := range nums {
		drawn[n] = true
	}
	return drawn
}

func TestCheckWinRow(t *testing.T) {
	card := testCard(1)
	// Row 0 across all five columns.
	drawn := drawnSet(card.Cell(0, 0), card.Cell(1, 0), card.Cell(2, 0), card.Cell(3, 0), card.Cell(4, 0))
	assert.Equal(t, PatternRow, CheckWin(card, drawn))
}

func TestCheckWinRowThroughFreeCell(t *testing.T) {
	card := testCard(1)
	// Row 2 crosses the free center cell, so only four numbers are needed.
	drawn := drawnSet(card.Cell(0, 2), card.Cell(1, 2), card.Cell(3, 2), card.Cell(4, 2))
	assert.Equal(t, PatternRow, CheckWin(card, drawn))
}

func TestCheckWinColumn(t *testing.T) {
	card := testCard(1)
	drawn := drawnSet(card.Cell(4, 0), card.Cell(4, 1), card.Cell(4, 2), card.Cell(4, 3), card.Cell(4, 4))
	assert.Equal(t, PatternColumn, CheckWin(card, drawn))
}

func TestCheckWinDiagonal(t *testing.T) {
	card := testCard(1)
	// Main diagonal, center is free.
	drawn := drawnSet(card.Cell(0, 0), card.Cell(1, 1), card.Cell(3, 3), card.Cell(4, 4))
	assert.Equal(t, PatternDiagonal, CheckWin(card, drawn))

	// Anti-diagonal.
	drawn = drawnSet(card.Cell(0, 4), card.Cell(1, 3), card.Cell(3, 1), card.Cell(4, 0))
	assert.Equal(t, PatternDiagonal, CheckWin(card, drawn))
}

func TestCheckWinCorners(t *testing.T) {
	card := testCard(1)
	drawn := drawnSet(card.Cell(0, 0), card.Cell(4, 0), card.Cell(0, 4), card.Cell(4, 4))
	assert.Equal(t, PatternCorners, CheckWin(card, drawn))
}

func TestCheckWinPriorityOrder(t *testing.T) {
	card := testCard(1)

	// A fully covered card reports ROW: rows are checked first.
	all := make(map[int]bool)
	for col := 0; col < 5; col++ {
		for row := 0; row < 5; row++ {
			all[card.Cell(col, row)] = true
		}
	}
	assert.Equal(t, PatternRow, CheckWin(card, all))

	// Column 0 plus all four corners covered: COLUMN beats CORNERS.
	drawn := drawnSet(
		card.Cell(0, 0), card.Cell(0, 1), card.Cell(0, 2), card.Cell(0, 3), card.Cell(0, 4),
		card.Cell(4, 0), card.Cell(4, 4),
	)
	assert.Equal(t, PatternColumn, CheckWin(card, drawn))
}

func TestCheckWinNone(t *testing.T) {
	card := testCard(1)
	assert.Equal(t, PatternNone, CheckWin(card, drawnSet()))

	// Four of five in a row is not a win.
	drawn := drawnSet(card.Cell(0, 0), card.Cell(1, 0), card.Cell(2, 0), card.Cell(3, 0))
	assert.Equal(t, PatternNone, CheckWin(card, drawn))
}

func TestCheckWinNilCard(t *testing.T) {
	assert.Equal(t, PatternNone, CheckWin(nil, drawnSet(1, 2, 3)))
}
