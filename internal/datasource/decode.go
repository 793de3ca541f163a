package datasource

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/peloton/internal/models"
)

var validate = validator.New()

// DecodePool reads a PoolDocument and converts it into a validated EventPool.
// An explicit market_odds signal takes precedence over the raw odds string.
func DecodePool(r io.Reader) (*EventPool, error) {
	var doc PoolDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return BuildPool(doc)
}

// BuildPool validates doc and builds its competitor pool
func BuildPool(doc PoolDocument) (*EventPool, error) {
	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	entries := make([]models.PoolEntry, 0, len(doc.Rows))
	for _, row := range doc.Rows {
		entry := row.PoolEntry
		if row.Odds != nil {
			if _, explicit := entry.Signals[models.SourceMarketOdds]; !explicit {
				price, err := models.ParseOdds(*row.Odds)
				if err != nil {
					return nil, fmt.Errorf("%w: competitor %s: %v", ErrInvalidData, entry.Key, err)
				}
				f, _ := price.Float64()
				signals := make(map[string]*float64, len(entry.Signals)+1)
				for k, v := range entry.Signals {
					signals[k] = v
				}
				signals[models.SourceMarketOdds] = &f
				entry.Signals = signals
			}
		}
		entries = append(entries, entry)
	}

	pool, err := models.NewPool(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	return &EventPool{
		EventID:     doc.EventID,
		EventClass:  doc.EventClass,
		Competitors: pool,
	}, nil
}

// DecodeResult reads an EventResult document
func DecodeResult(r io.Reader) (*models.EventResult, error) {
	var result models.EventResult
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if result.EventID == "" {
		return nil, fmt.Errorf("%w: result is missing event_id", ErrInvalidData)
	}
	for key, pts := range result.Points {
		if pts < 0 {
			return nil, fmt.Errorf("%w: competitor %s has negative points %d", ErrInvalidData, key, pts)
		}
	}
	return &result, nil
}
