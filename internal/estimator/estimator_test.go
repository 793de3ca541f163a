package estimator

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/peloton/internal/models"
)

func ptr(v float64) *float64 { return &v }

func TestUpdateContractsVariance(t *testing.T) {
	prior := Posterior{Mean: 0, Variance: 1}
	post, err := Update(prior, Observation{Kind: KindSeasonalForm, Value: 2, Variance: 1})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, post.Mean, 1e-12)
	assert.InDelta(t, 0.5, post.Variance, 1e-12)
	assert.Less(t, post.Variance, prior.Variance)
}

func TestEstimateEachObservationReducesVariance(t *testing.T) {
	prior := Posterior{Mean: 0.3, Variance: 2}
	obs := []Observation{
		{Kind: KindSeasonalForm, Value: 1, Variance: 0.8},
		{Kind: KindRaceHistory, Value: -0.5, Variance: 1.2, Age: 0},
		{Kind: KindRaceHistory, Value: 0.1, Variance: 1.8, Age: 1},
		{Kind: KindMarketOdds, Value: 0.9, Variance: 0.35},
	}

	prev := prior.Variance
	for i := 1; i <= len(obs); i++ {
		post, err := Estimate(prior, obs[:i])
		require.NoError(t, err)
		assert.Less(t, post.Variance, prev)
		prev = post.Variance
	}
}

func TestEstimateNoObservationsReturnsPrior(t *testing.T) {
	prior := Posterior{Mean: -1.25, Variance: 3}
	post, err := Estimate(prior, nil)
	require.NoError(t, err)
	assert.Equal(t, prior, post)
}

func TestEstimateIsOrderIndependentOfInput(t *testing.T) {
	prior := Posterior{Mean: 0, Variance: 1}
	a := []Observation{
		{Kind: KindMarketOdds, Value: 1.5, Variance: 0.4},
		{Kind: KindSeasonalForm, Value: -0.2, Variance: 0.9},
		{Kind: KindRaceHistory, Value: 0.7, Variance: 2.0, Age: 2},
	}
	b := []Observation{a[1], a[2], a[0]}

	pa, err := Estimate(prior, a)
	require.NoError(t, err)
	pb, err := Estimate(prior, b)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestEstimateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		prior Posterior
		obs   []Observation
		want  error
	}{
		{"zero prior variance", Posterior{Variance: 0}, nil, ErrInvalidVariance},
		{"negative observation variance", Posterior{Variance: 1}, []Observation{{Kind: KindSeasonalForm, Value: 1, Variance: -1}}, ErrInvalidVariance},
		{"infinite observation variance", Posterior{Variance: 1}, []Observation{{Kind: KindSeasonalForm, Value: 1, Variance: math.Inf(1)}}, ErrInvalidVariance},
		{"nan value", Posterior{Variance: 1}, []Observation{{Kind: KindMarketOdds, Value: math.NaN(), Variance: 1}}, ErrInvalidObservation},
		{"nan prior mean", Posterior{Mean: math.NaN(), Variance: 1}, nil, ErrInvalidObservation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Estimate(tt.prior, tt.obs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	p := DefaultParams()
	p.OddsCalibration = 0
	assert.ErrorIs(t, p.Validate(), ErrInvalidParams)

	p = DefaultParams()
	p.HistoryAgeDecay = -0.1
	assert.ErrorIs(t, p.Validate(), ErrInvalidParams)
}

func TestHistoryVarianceGrowsWithAge(t *testing.T) {
	p := DefaultParams()
	assert.Less(t, p.HistoryVariance(0), p.HistoryVariance(1))
	assert.Less(t, p.HistoryVariance(1), p.HistoryVariance(4))
}

func TestOddsStrength(t *testing.T) {
	p := DefaultParams()

	uniform, err := p.OddsStrength(0.1, 10)
	require.NoError(t, err)
	assert.InDelta(t, 0, uniform, 1e-12)

	fav, err := p.OddsStrength(0.5, 10)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(5)/p.OddsCalibration, fav, 1e-12)

	_, err = p.OddsStrength(0, 10)
	assert.ErrorIs(t, err, ErrInvalidObservation)
}

func TestBuildSignalsSkipsAbsentValues(t *testing.T) {
	pool := []models.Competitor{
		{Key: "a", Cost: 10, ExternalRating: ptr(80), SeasonForm: ptr(5), MarketOdds: ptr(3),
			History: []models.HistoricalResult{{Age: 0, Value: 12}, {Age: 1, Value: 30}}},
		{Key: "b", Cost: 10, ExternalRating: ptr(60), SeasonForm: ptr(2),
			History: []models.HistoricalResult{{Age: 0, Value: 40}}},
		{Key: "c", Cost: 10, ExternalRating: ptr(70), History: []models.HistoricalResult{{Age: 1, Value: 50}}},
		{Key: "d", Cost: 10},
	}

	signals, err := BuildSignals(pool, DefaultParams())
	require.NoError(t, err)
	require.Len(t, signals, 4)

	kinds := func(cs CompetitorSignals) []SignalKind {
		var out []SignalKind
		for _, o := range cs.Observations {
			out = append(out, o.Kind)
		}
		return out
	}

	assert.Equal(t, []SignalKind{KindSeasonalForm, KindRaceHistory, KindRaceHistory, KindMarketOdds}, kinds(signals[0]))
	assert.Equal(t, 0, signals[0].Observations[1].Age)
	assert.Equal(t, 1, signals[0].Observations[2].Age)
	assert.Equal(t, []SignalKind{KindSeasonalForm, KindRaceHistory}, kinds(signals[1]))
	assert.Equal(t, []SignalKind{KindRaceHistory}, kinds(signals[2]))
	assert.Empty(t, signals[3].Observations)

	params := DefaultParams()
	assert.Equal(t, Posterior{Mean: 0, Variance: params.MissingPriorVariance}, signals[3].Prior)
	assert.Equal(t, params.PriorVariance, signals[0].Prior.Variance)
	assert.Greater(t, signals[0].Prior.Mean, signals[1].Prior.Mean)
}

func TestEstimatePoolIgnoresColumnsWithoutSpread(t *testing.T) {
	params := DefaultParams()

	t.Run("single history result", func(t *testing.T) {
		pool := []models.Competitor{
			{Key: "a", Cost: 10, ExternalRating: ptr(10), History: []models.HistoricalResult{{Age: 0, Value: 120}}},
			{Key: "b", Cost: 10, ExternalRating: ptr(20)},
		}

		results, err := EstimatePool(pool, params)
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, 0, results[0].SignalsUsed)
		assert.InDelta(t, -math.Sqrt2/2, results[0].Posterior.Mean, 1e-12)
		assert.Equal(t, params.PriorVariance, results[0].Posterior.Variance)
	})

	t.Run("sole rated rider", func(t *testing.T) {
		pool := []models.Competitor{{Key: "solo", Cost: 10, ExternalRating: ptr(75)}}

		results, err := EstimatePool(pool, params)
		require.NoError(t, err)
		require.Len(t, results, 1)

		assert.Equal(t, Posterior{Mean: 0, Variance: params.MissingPriorVariance}, results[0].Posterior)
	})

	t.Run("identical form values", func(t *testing.T) {
		pool := []models.Competitor{
			{Key: "a", Cost: 10, SeasonForm: ptr(3)},
			{Key: "b", Cost: 10, SeasonForm: ptr(3)},
		}

		signals, err := BuildSignals(pool, params)
		require.NoError(t, err)
		for _, cs := range signals {
			assert.Empty(t, cs.Observations)
		}
	})
}

func TestEstimatePoolZeroSignalCompetitorGetsPrior(t *testing.T) {
	pool := []models.Competitor{
		{Key: "a", Cost: 10, ExternalRating: ptr(80)},
		{Key: "b", Cost: 10, ExternalRating: ptr(60)},
		{Key: "c", Cost: 10},
	}

	results, err := EstimatePool(pool, DefaultParams())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "c", results[2].Key)
	assert.Equal(t, 0, results[2].SignalsUsed)
	assert.Equal(t, DefaultParams().MissingPriorVariance, results[2].Posterior.Variance)
	assert.Greater(t, results[0].Posterior.Mean, results[1].Posterior.Mean)
}

func TestEstimatePoolFavouriteFromOdds(t *testing.T) {
	pool := []models.Competitor{
		{Key: "fav", Cost: 10, MarketOdds: ptr(2)},
		{Key: "outsider", Cost: 10, MarketOdds: ptr(51)},
		{Key: "unpriced", Cost: 10},
	}

	results, err := EstimatePool(pool, DefaultParams())
	require.NoError(t, err)

	assert.Greater(t, results[0].Posterior.Mean, 0.0)
	assert.Less(t, results[1].Posterior.Mean, 0.0)
	assert.Equal(t, 0.0, results[2].Posterior.Mean)
	assert.Less(t, results[0].Posterior.Variance, results[2].Posterior.Variance)
}
