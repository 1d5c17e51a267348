// internal/engine/board.go
//
// Board state for a multiplayer game: a 6x5 grid of category/points cells.
// Cells transition available -> completed exactly once, never back.
// IsFull (30/30 completed) is the sole trigger for Final Round eligibility.

package engine

import (
	"github.com/rdren0/literate-waddle/internal/trivia"
)

// Cell is one (category, points) slot on the board.
type Cell struct {
	Available bool `json:"available"`
	Completed bool `json:"completed"`
}

// Board is the full 6x5 grid, indexed [category-1][tier].
type Board struct {
	cells [trivia.NumCategories][5]Cell
}

// NewBoard returns a board with all 30 cells available.
func NewBoard() *Board {
	b := &Board{}
	for c := range b.cells {
		for t := range b.cells[c] {
			b.cells[c][t] = Cell{Available: true}
		}
	}
	return b
}

// tierIndex maps a tier value (100..500) to 0..4; ok=false otherwise.
func tierIndex(pts int) (int, bool) {
	for i, v := range trivia.PointValues {
		if v == pts {
			return i, true
		}
	}
	return 0, false
}

// Cell returns a copy of the cell at (category, points).
func (b *Board) Cell(c trivia.Category, pts int) (Cell, bool) {
	t, ok := tierIndex(pts)
	if !ok || !c.Valid() {
		return Cell{}, false
	}
	return b.cells[c-1][t], true
}

// Select validates that the cell exists and is still available.
func (b *Board) Select(c trivia.Category, pts int) error {
	t, ok := tierIndex(pts)
	if !ok || !c.Valid() {
		return ErrInvalidSelection
	}
	if b.cells[c-1][t].Completed {
		return ErrAlreadyCompleted
	}
	return nil
}

// MarkCompleted retires a cell. Completion is one-way; calling it twice is
// harmless, but callers must check Completed first to avoid double-award.
func (b *Board) MarkCompleted(c trivia.Category, pts int) {
	t, ok := tierIndex(pts)
	if !ok || !c.Valid() {
		return
	}
	b.cells[c-1][t].Completed = true
	b.cells[c-1][t].Available = false
}

// CompletedCount returns how many of the 30 cells are completed.
func (b *Board) CompletedCount() int {
	n := 0
	for c := range b.cells {
		for t := range b.cells[c] {
			if b.cells[c][t].Completed {
				n++
			}
		}
	}
	return n
}

// IsFull reports whether every cell is completed.
func (b *Board) IsFull() bool {
	return b.CompletedCount() == trivia.NumCategories*len(trivia.PointValues)
}

// CategoryStatus is one category row in a board snapshot.
type CategoryStatus struct {
	Index    int          `json:"index"`
	Category string       `json:"category"`
	Cells    []CellStatus `json:"cells"`
}

// CellStatus is one cell in a board snapshot.
type CellStatus struct {
	Points    int  `json:"points"`
	Available bool `json:"available"`
	Completed bool `json:"completed"`
}

// BoardStatus is a read-only snapshot handed to the rendering layer.
type BoardStatus struct {
	Completed  int              `json:"completed"`
	Total      int              `json:"total"`
	Categories []CategoryStatus `json:"categories"`
}

// Snapshot builds a BoardStatus from the current grid.
func (b *Board) Snapshot() BoardStatus {
	st := BoardStatus{
		Completed: b.CompletedCount(),
		Total:     trivia.NumCategories * len(trivia.PointValues),
	}
	for _, c := range trivia.Categories() {
		row := CategoryStatus{Index: int(c), Category: c.String()}
		for _, pts := range trivia.PointValues {
			cell, _ := b.Cell(c, pts)
			row.Cells = append(row.Cells, CellStatus{
				Points:    pts,
				Available: cell.Available,
				Completed: cell.Completed,
			})
		}
		st.Categories = append(st.Categories, row)
	}
	return st
}
