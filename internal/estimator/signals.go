package estimator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/yourusername/peloton/internal/models"
	"github.com/yourusername/peloton/internal/normalize"
)

// CompetitorSignals is the prior and the ordered observations for one rider.
type CompetitorSignals struct {
	Key          string
	Prior        Posterior
	Observations []Observation
}

// Result is a fused posterior together with the number of signals behind it.
type Result struct {
	Key         string
	Posterior   Posterior
	SignalsUsed int
}

// BuildSignals standardizes the pool's raw signals and assembles each rider's
// prior and observation list. Absent values, and values from a column with
// no spread to standardize by, never become observations.
func BuildSignals(pool []models.Competitor, params Params) ([]CompetitorSignals, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	n := len(pool)
	ratings := make([]*float64, n)
	forms := make([]*float64, n)
	for i := range pool {
		ratings[i] = pool[i].ExternalRating
		forms[i] = pool[i].SeasonForm
	}
	ratingZ := normalize.Standardize(ratings)
	formZ := normalize.Standardize(forms)
	historyZ := standardizeHistory(pool, params.MaxHistoryAge)

	out := make([]CompetitorSignals, n)
	for i := range pool {
		c := &pool[i]
		cs := CompetitorSignals{Key: c.Key}

		if z, ok := ratingZ.Value(i); ok {
			cs.Prior = Posterior{Mean: z, Variance: params.PriorVariance}
		} else {
			cs.Prior = Posterior{Mean: normalize.Neutral, Variance: params.MissingPriorVariance}
		}

		if z, ok := formZ.Value(i); ok {
			cs.Observations = append(cs.Observations, Observation{
				Kind:     KindSeasonalForm,
				Value:    z,
				Variance: params.FormVariance,
			})
		}

		for _, age := range historyZ.ages {
			if z, ok := historyZ.byAge[age].Value(i); ok {
				cs.Observations = append(cs.Observations, Observation{
					Kind:     KindRaceHistory,
					Value:    z,
					Variance: params.HistoryVariance(age),
					Age:      age,
				})
			}
		}

		if c.MarketOdds != nil {
			p := models.ImpliedProbability(decimal.NewFromFloat(*c.MarketOdds))
			strength, err := params.OddsStrength(p, n)
			if err != nil {
				return nil, fmt.Errorf("competitor %s: %w", c.Key, err)
			}
			cs.Observations = append(cs.Observations, Observation{
				Kind:     KindMarketOdds,
				Value:    strength,
				Variance: params.OddsVariance,
			})
		}

		out[i] = cs
	}
	return out, nil
}

// EstimatePool fuses every rider's signals. A failure on any rider fails the
// whole pool.
func EstimatePool(pool []models.Competitor, params Params) ([]Result, error) {
	signals, err := BuildSignals(pool, params)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(signals))
	for i, cs := range signals {
		post, err := Estimate(cs.Prior, cs.Observations)
		if err != nil {
			return nil, fmt.Errorf("competitor %s: %w", cs.Key, err)
		}
		results[i] = Result{Key: cs.Key, Posterior: post, SignalsUsed: len(cs.Observations)}
	}
	return results, nil
}

type historySet struct {
	ages  []int
	byAge map[int]normalize.Standardized
}

// standardizeHistory z-scores each edition's results across the pool.
func standardizeHistory(pool []models.Competitor, maxAge int) historySet {
	present := map[int]bool{}
	for i := range pool {
		for _, h := range pool[i].History {
			if maxAge > 0 && h.Age > maxAge {
				continue
			}
			present[h.Age] = true
		}
	}

	set := historySet{byAge: make(map[int]normalize.Standardized, len(present))}
	for age := range present {
		set.ages = append(set.ages, age)
	}
	sort.Ints(set.ages)

	for _, age := range set.ages {
		column := make([]*float64, len(pool))
		for i := range pool {
			if v, ok := pool[i].HistoryValue(age); ok {
				v := v
				column[i] = &v
			}
		}
		set.byAge[age] = normalize.Standardize(column)
	}
	return set
}
