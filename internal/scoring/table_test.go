package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTableValidation(t *testing.T) {
	tests := []struct {
		name   string
		finish []int
		assist []int
		bonus  int
	}{
		{"empty finish", nil, nil, 0},
		{"negative finish", []int{10, -1}, nil, 0},
		{"increasing finish", []int{10, 20}, nil, 0},
		{"too many assists", []int{10}, []int{4, 3, 2, 1}, 0},
		{"increasing assists", []int{10}, []int{1, 2}, 0},
		{"negative bonus", []int{10}, nil, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.finish, tt.assist, tt.bonus)
			assert.ErrorIs(t, err, ErrInvalidTable)
		})
	}
}

func TestTableLookupsOutOfRange(t *testing.T) {
	tbl, err := NewTable([]int{50, 30, 10}, []int{6, 3}, 2)
	require.NoError(t, err)

	assert.Equal(t, 50, tbl.FinishPoints(1))
	assert.Equal(t, 10, tbl.FinishPoints(3))
	assert.Equal(t, 0, tbl.FinishPoints(4))
	assert.Equal(t, 0, tbl.FinishPoints(0))
	assert.Equal(t, 0, tbl.FinishPoints(-3))

	assert.Equal(t, 6, tbl.AssistPoints(1))
	assert.Equal(t, 3, tbl.AssistPoints(2))
	assert.Equal(t, 0, tbl.AssistPoints(3))
	assert.Equal(t, 2, tbl.SectorBonus())
}

func TestTableIsImmutable(t *testing.T) {
	finish := []int{50, 30, 10}
	tbl, err := NewTable(finish, nil, 0)
	require.NoError(t, err)

	finish[0] = 1
	assert.Equal(t, 50, tbl.FinishPoints(1))

	sched := tbl.FinishSchedule()
	sched[0] = 2
	assert.Equal(t, 50, tbl.FinishPoints(1))
}

func TestDefaultTablesAreMonotonic(t *testing.T) {
	for class, tbl := range DefaultTables() {
		t.Run(string(class), func(t *testing.T) {
			assert.Equal(t, 30, tbl.Depth())
			for k := 1; k <= tbl.Depth(); k++ {
				assert.GreaterOrEqual(t, tbl.FinishPoints(k), tbl.FinishPoints(k+1))
			}
			assert.Equal(t, 0, tbl.FinishPoints(31))
		})
	}
}

func TestLoadTables(t *testing.T) {
	tables, err := LoadTables("testdata/scoring.yaml")
	require.NoError(t, err)

	oneDay, err := tables.For(OneDay)
	require.NoError(t, err)
	assert.Equal(t, 100, oneDay.FinishPoints(1))
	assert.Equal(t, 5, oneDay.Depth())
	assert.Equal(t, 3, oneDay.SectorBonus())

	gt, err := tables.For(GrandTour)
	require.NoError(t, err)
	assert.Equal(t, 25, gt.AssistPoints(1))
	assert.Equal(t, 0, gt.AssistPoints(2))

	stage, err := tables.For(StageRace)
	require.NoError(t, err)
	assert.Equal(t, DefaultTables()[StageRace].FinishSchedule(), stage.FinishSchedule())
}

func TestLoadTablesRejectsBadFiles(t *testing.T) {
	_, err := LoadTables("testdata/increasing.yaml")
	assert.ErrorIs(t, err, ErrInvalidTable)

	_, err = LoadTables("testdata/unknown_class.yaml")
	assert.ErrorIs(t, err, ErrInvalidTable)

	_, err = LoadTables("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestParseEventClass(t *testing.T) {
	c, err := ParseEventClass(" Grand_Tour ")
	require.NoError(t, err)
	assert.Equal(t, GrandTour, c)

	_, err = ParseEventClass("criterium")
	assert.ErrorIs(t, err, ErrUnknownEventClass)

	_, err = DefaultTables().For("criterium")
	assert.ErrorIs(t, err, ErrUnknownEventClass)
}
