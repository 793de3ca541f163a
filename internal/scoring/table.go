// Package scoring maps simulated finishing positions to fantasy points.
package scoring

import (
	"errors"
	"fmt"
)

// MaxAssistPositions is the number of podium places that earn teammate assists.
const MaxAssistPositions = 3

var (
	// ErrInvalidTable indicates a table that breaks the points invariants.
	ErrInvalidTable = errors.New("invalid scoring table")

	// ErrUnknownEventClass indicates a lookup for a class with no table.
	ErrUnknownEventClass = errors.New("unknown event class")
)

// Table is an immutable points schedule for one event class.
type Table struct {
	finish      []int
	assist      []int
	sectorBonus int
}

// NewTable validates and copies the points vectors. Finish and assist points
// must be non-negative and non-increasing in position.
func NewTable(finish, assist []int, sectorBonus int) (*Table, error) {
	if len(finish) == 0 {
		return nil, fmt.Errorf("%w: finish points are empty", ErrInvalidTable)
	}
	if err := checkSchedule("finish", finish); err != nil {
		return nil, err
	}
	if len(assist) > MaxAssistPositions {
		return nil, fmt.Errorf("%w: %d assist values, at most %d allowed", ErrInvalidTable, len(assist), MaxAssistPositions)
	}
	if err := checkSchedule("assist", assist); err != nil {
		return nil, err
	}
	if sectorBonus < 0 {
		return nil, fmt.Errorf("%w: negative sector bonus %d", ErrInvalidTable, sectorBonus)
	}

	return &Table{
		finish:      append([]int(nil), finish...),
		assist:      append([]int(nil), assist...),
		sectorBonus: sectorBonus,
	}, nil
}

func checkSchedule(name string, points []int) error {
	for i, p := range points {
		if p < 0 {
			return fmt.Errorf("%w: %s points at position %d are negative", ErrInvalidTable, name, i+1)
		}
		if i > 0 && p > points[i-1] {
			return fmt.Errorf("%w: %s points increase at position %d", ErrInvalidTable, name, i+1)
		}
	}
	return nil
}

// FinishPoints returns the points for finishing at pos (1-based).
func (t *Table) FinishPoints(pos int) int {
	if pos < 1 || pos > len(t.finish) {
		return 0
	}
	return t.finish[pos-1]
}

// AssistPoints returns the points credited to each teammate of the rider
// finishing at pos.
func (t *Table) AssistPoints(pos int) int {
	if pos < 1 || pos > len(t.assist) {
		return 0
	}
	return t.assist[pos-1]
}

// SectorBonus returns the flat bonus per breakaway sector.
func (t *Table) SectorBonus() int {
	return t.sectorBonus
}

// Depth is the number of scoring finish positions.
func (t *Table) Depth() int {
	return len(t.finish)
}

// AssistDepth is the number of positions that pay assists.
func (t *Table) AssistDepth() int {
	return len(t.assist)
}

// FinishSchedule returns a copy of the finish points.
func (t *Table) FinishSchedule() []int {
	return append([]int(nil), t.finish...)
}

// AssistSchedule returns a copy of the assist points.
func (t *Table) AssistSchedule() []int {
	return append([]int(nil), t.assist...)
}
