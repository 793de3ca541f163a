package models

import (
	"time"

	"github.com/google/uuid"
)

// Prediction is the per-competitor output of a prediction run.
type Prediction struct {
	Key               string   `db:"competitor_key" json:"key"`
	Name              string   `db:"name" json:"name"`
	Team              string   `db:"team" json:"team"`
	Cost              int      `db:"cost" json:"cost"`
	Category          Category `db:"category" json:"category"`
	StrengthMean      float64  `db:"strength_mean" json:"strength_mean"`
	StrengthVariance  float64  `db:"strength_variance" json:"strength_variance"`
	ExpectedTotal     float64  `db:"expected_total" json:"expected_score_total"`
	ExpectedFinish    float64  `db:"expected_finish" json:"expected_score_finish"`
	ExpectedAssist    float64  `db:"expected_assist" json:"expected_score_assist"`
	ExpectedBonus     float64  `db:"expected_bonus" json:"expected_score_bonus"`
	WinProbability    float64  `db:"win_probability" json:"win_probability"`
	PodiumProbability float64  `db:"podium_probability" json:"podium_probability"`
	SignalsUsed       int      `db:"signals_used" json:"signals_used"`
}

// PredictionRun groups the predictions produced for one event.
type PredictionRun struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	EventID     string       `db:"event_id" json:"event_id"`
	EventClass  string       `db:"event_class" json:"event_class"`
	Fingerprint string       `db:"fingerprint" json:"fingerprint"`
	Trials      int          `db:"trials" json:"trials"`
	Seed        int64        `db:"seed" json:"seed"`
	Predictions []Prediction `db:"-" json:"predictions"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// Clone returns a copy of the run that shares no predictions with r.
func (r *PredictionRun) Clone() *PredictionRun {
	if r == nil {
		return nil
	}
	out := *r
	out.Predictions = append([]Prediction(nil), r.Predictions...)
	return &out
}

// ByKey indexes the run's predictions by competitor key.
func (r *PredictionRun) ByKey() map[string]Prediction {
	out := make(map[string]Prediction, len(r.Predictions))
	for _, p := range r.Predictions {
		out[p.Key] = p
	}
	return out
}
