package game

import (
	"encoding/json"
	"math/rand"
	"sort"
)

const (
	CatalogSize = 100

	// Grid coordinates of the free center cell.
	FreeCol = 2
	FreeRow = 2
)

// Letters label the five columns and their number bands:
// B 1-15, I 16-30, N 31-45, G 46-60, O 61-75.
var Letters = [5]string{"B", "I", "N", "G", "O"}

// Card is an immutable 5x5 bingo card template. Columns holds five
// numbers per letter; the free center cell is stored as 0.
type Card struct {
	ID      int
	Columns [5][5]int
}

// Cell returns the number at the given column and row.
func (c *Card) Cell(col, row int) int {
	return c.Columns[col][row]
}

// IsFree reports whether the cell is the always-matched center cell.
func IsFree(col, row int) bool {
	return col == FreeCol && row == FreeRow
}

// MarshalJSON emits the wire shape clients render:
// {"card_id":7,"B":[...],"I":[...],"N":[...],"G":[...],"O":[...]}.
func (c *Card) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 6)
	out["card_id"] = c.ID
	for i, l := range Letters {
		out[l] = c.Columns[i]
	}
	return json.Marshal(out)
}

// Catalog is the fixed registry of pre-generated cards, built once at
// startup and read-only afterwards.
type Catalog struct {
	cards map[int]*Card
}

// catalogSeed fixes the generated registry so every process (and every
// round) sees the same 100 cards.
const catalogSeed = 75_2500

// NewCatalog generates the full card registry. Each column samples five
// distinct numbers from its letter band, sorted ascending, with the
// center cell of the N column left free.
func NewCatalog() *Catalog {
	rng := rand.New(rand.NewSource(catalogSeed))
	cards := make(map[int]*Card, CatalogSize)

	for id := 1; id <= CatalogSize; id++ {
		card := &Card{ID: id}
		for col := 0; col < 5; col++ {
			low := col*15 + 1
			perm := rng.Perm(15)[:5]
			nums := make([]int, 5)
			for i, p := range perm {
				nums[i] = low + p
			}
			sort.Ints(nums)
			for row := 0; row < 5; row++ {
				card.Columns[col][row] = nums[row]
			}
		}
		card.Columns[FreeCol][FreeRow] = 0
		cards[id] = card
	}

	return &Catalog{cards: cards}
}

// Get looks up a card template by id. Unknown ids are an error: a
// purchase must never fall back to a substitute card.
func (c *Catalog) Get(id int) (*Card, error) {
	card, ok := c.cards[id]
	if !ok {
		return nil, ErrCardNotFound
	}
	return card, nil
}

// Size returns the number of registered cards.
func (c *Catalog) Size() int {
	return len(c.cards)
}
