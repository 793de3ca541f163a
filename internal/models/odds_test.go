package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOdds(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"6.5", "6.5"},
		{"11/2", "6.5"},
		{" 1/4 ", "1.25"},
		{"2", "2"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseOdds(tt.raw)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseOddsInvalid(t *testing.T) {
	for _, raw := range []string{"", "1", "0.5", "abc", "5/0", "-2/1"} {
		_, err := ParseOdds(raw)
		assert.ErrorIs(t, err, ErrInvalidOdds, raw)
	}
}

func TestImpliedProbability(t *testing.T) {
	assert.InDelta(t, 0.25, ImpliedProbability(decimal.NewFromInt(4)), 1e-12)
	assert.Equal(t, 0.0, ImpliedProbability(decimal.NewFromInt(1)))
}
