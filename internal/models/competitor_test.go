package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func TestNewCompetitorConvertsSignals(t *testing.T) {
	entry := PoolEntry{
		Key:      "pogacar-tadej",
		Name:     "Tadej Pogacar",
		Team:     "UAE",
		Cost:     28,
		Category: strPtr("Climber"),
		Signals: map[string]*float64{
			SourceExternalRating: floatPtr(4120),
			SourceSeasonForm:     nil,
			SourceMarketOdds:     floatPtr(2.5),
			"history_2":          floatPtr(120),
			"history_0":          floatPtr(600),
			"history_1":          nil,
		},
	}

	c, err := NewCompetitor(entry)
	require.NoError(t, err)
	assert.Equal(t, CategoryClimber, c.Category)
	require.NotNil(t, c.ExternalRating)
	assert.Equal(t, 4120.0, *c.ExternalRating)
	assert.Nil(t, c.SeasonForm)
	require.Len(t, c.History, 2)
	assert.Equal(t, 0, c.History[0].Age)
	assert.Equal(t, 2, c.History[1].Age)

	v, ok := c.HistoryValue(2)
	assert.True(t, ok)
	assert.Equal(t, 120.0, v)
	_, ok = c.HistoryValue(1)
	assert.False(t, ok)
}

func TestNewCompetitorRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		entry   PoolEntry
		wantErr error
	}{
		{"missing key", PoolEntry{Cost: 5}, ErrMissingKey},
		{"zero cost", PoolEntry{Key: "a", Cost: 0}, ErrInvalidCost},
		{"negative cost", PoolEntry{Key: "a", Cost: -3}, ErrInvalidCost},
		{"unknown category", PoolEntry{Key: "a", Cost: 5, Category: strPtr("domestique")}, ErrUnknownCategory},
		{"unknown source", PoolEntry{Key: "a", Cost: 5, Signals: map[string]*float64{"twitter": floatPtr(1)}}, ErrInvalidSignal},
		{"bad history age", PoolEntry{Key: "a", Cost: 5, Signals: map[string]*float64{"history_x": floatPtr(1)}}, ErrInvalidSignal},
		{"odds at evens floor", PoolEntry{Key: "a", Cost: 5, Signals: map[string]*float64{SourceMarketOdds: floatPtr(1)}}, ErrInvalidSignal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCompetitor(tt.entry)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewPoolRejectsDuplicateKeys(t *testing.T) {
	_, err := NewPool([]PoolEntry{
		{Key: "a", Name: "A", Cost: 5},
		{Key: "a", Name: "A again", Cost: 6},
	})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestParseCategoryNone(t *testing.T) {
	c, err := ParseCategory("none")
	require.NoError(t, err)
	assert.Equal(t, CategoryNone, c)
	assert.True(t, CategorySprinter.IsValid())
	assert.False(t, Category("gc").IsValid())
}
