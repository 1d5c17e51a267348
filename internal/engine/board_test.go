package engine

import (
	"errors"
	"testing"

	"github.com/rdren0/literate-waddle/internal/trivia"
)

func TestNewBoardAllAvailable(t *testing.T) {
	b := NewBoard()
	if b.CompletedCount() != 0 {
		t.Fatalf("fresh board has %d completed cells", b.CompletedCount())
	}
	for _, c := range trivia.Categories() {
		for _, pts := range trivia.PointValues {
			cell, ok := b.Cell(c, pts)
			if !ok || !cell.Available || cell.Completed {
				t.Fatalf("cell (%v, %d) = %+v, ok=%v", c, pts, cell, ok)
			}
		}
	}
}

func TestBoardSelectValidation(t *testing.T) {
	b := NewBoard()
	if err := b.Select(trivia.Potions, 300); err != nil {
		t.Errorf("valid selection rejected: %v", err)
	}
	if err := b.Select(trivia.Category(9), 300); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("bad category: got %v", err)
	}
	if err := b.Select(trivia.Potions, 250); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("bad points: got %v", err)
	}

	b.MarkCompleted(trivia.Potions, 300)
	if err := b.Select(trivia.Potions, 300); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("completed cell: got %v", err)
	}
}

func TestBoardCompletionIsMonotonic(t *testing.T) {
	b := NewBoard()
	b.MarkCompleted(trivia.SpellsAndMagic, 100)
	b.MarkCompleted(trivia.SpellsAndMagic, 100) // repeat is harmless
	if got := b.CompletedCount(); got != 1 {
		t.Fatalf("CompletedCount = %d, want 1", got)
	}
	cell, _ := b.Cell(trivia.SpellsAndMagic, 100)
	if cell.Available || !cell.Completed {
		t.Fatalf("completed cell = %+v", cell)
	}
}

func TestBoardIsFull(t *testing.T) {
	b := NewBoard()
	for _, c := range trivia.Categories() {
		for _, pts := range trivia.PointValues {
			if b.IsFull() {
				t.Fatal("IsFull before all cells completed")
			}
			b.MarkCompleted(c, pts)
		}
	}
	if !b.IsFull() {
		t.Fatal("IsFull false with all 30 cells completed")
	}
}

func TestBoardSnapshot(t *testing.T) {
	b := NewBoard()
	b.MarkCompleted(trivia.WizardingWorld, 500)
	st := b.Snapshot()
	if st.Total != 30 || st.Completed != 1 {
		t.Fatalf("snapshot totals = %d/%d", st.Completed, st.Total)
	}
	if len(st.Categories) != trivia.NumCategories {
		t.Fatalf("snapshot has %d categories", len(st.Categories))
	}
	last := st.Categories[trivia.NumCategories-1]
	if last.Category != "WIZARDING WORLD" {
		t.Fatalf("last category = %q", last.Category)
	}
	if cell := last.Cells[4]; !cell.Completed || cell.Available {
		t.Fatalf("500 cell = %+v", cell)
	}
}
