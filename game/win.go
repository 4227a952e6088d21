package game

// Pattern labels a satisfied win category.
type Pattern string

const (
	PatternNone     Pattern = ""
	PatternRow      Pattern = "ROW"
	PatternColumn   Pattern = "COLUMN"
	PatternDiagonal Pattern = "DIAGONAL"
	PatternCorners  Pattern = "CORNERS"
)

// CheckWin reports the first win category satisfied by the card against
// the set of drawn balls. The free center cell always counts as covered.
// Evaluation order is fixed: rows, then columns, then diagonals, then
// the four corners; the first hit wins.
func CheckWin(card *Card, drawn map[int]bool) Pattern {
	if card == nil {
		return PatternNone
	}

	covered := func(col, row int) bool {
		if IsFree(col, row) {
			return true
		}
		return drawn[card.Columns[col][row]]
	}

	for row := 0; row < 5; row++ {
		full := true
		for col := 0; col < 5; col++ {
			if !covered(col, row) {
				full = false
				break
			}
		}
		if full {
			return PatternRow
		}
	}

	for col := 0; col < 5; col++ {
		full := true
		for row := 0; row < 5; row++ {
			if !covered(col, row) {
				full = false
				break
			}
		}
		if full {
			return PatternColumn
		}
	}

	diag1, diag2 := true, true
	for i := 0; i < 5; i++ {
		if !covered(i, i) {
			diag1 = false
		}
		if !covered(i, 4-i) {
			diag2 = false
		}
	}
	if diag1 || diag2 {
		return PatternDiagonal
	}

	if covered(0, 0) && covered(4, 0) && covered(0, 4) && covered(4, 4) {
		return PatternCorners
	}

	return PatternNone
}
