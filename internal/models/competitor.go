package models

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Category is the rider classification used by category quotas.
type Category string

const (
	CategoryAllRounder Category = "all_rounder"
	CategoryClimber    Category = "climber"
	CategorySprinter   Category = "sprinter"
	CategoryUnclassed  Category = "unclassed"
	// CategoryNone is used by game formats without rider categories.
	CategoryNone Category = ""
)

// Signal source names accepted in pool rows.
const (
	SourceExternalRating = "external_rating"
	SourceSeasonForm     = "season_form"
	SourceMarketOdds     = "market_odds"
	SourceHistoryPrefix  = "history_"
)

// ParseCategory maps a raw category label to a Category.
func ParseCategory(raw string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryAllRounder:
		return CategoryAllRounder, nil
	case CategoryClimber:
		return CategoryClimber, nil
	case CategorySprinter:
		return CategorySprinter, nil
	case CategoryUnclassed:
		return CategoryUnclassed, nil
	case CategoryNone, "none":
		return CategoryNone, nil
	default:
		return CategoryNone, fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
	}
}

// IsValid reports whether c belongs to the closed category set.
func (c Category) IsValid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

// PoolEntry is one row of a competitor pool as delivered by a data source.
type PoolEntry struct {
	Key      string              `json:"key" validate:"required"`
	Name     string              `json:"name" validate:"required"`
	Team     string              `json:"team"`
	Cost     int                 `json:"cost" validate:"gt=0"`
	Category *string             `json:"category"`
	Signals  map[string]*float64 `json:"signals"`
}

// HistoricalResult is a past result at the same race, Age seasons ago.
type HistoricalResult struct {
	Age   int
	Value float64
}

// Competitor is a validated pool entry with typed signal attributes.
type Competitor struct {
	Key            string
	Name           string
	Team           string
	Cost           int
	Category       Category
	ExternalRating *float64
	SeasonForm     *float64
	MarketOdds     *float64
	// History is ordered most recent first and holds only present results.
	History []HistoricalResult
}

// NewCompetitor validates a pool entry and converts its signal map.
func NewCompetitor(entry PoolEntry) (Competitor, error) {
	if strings.TrimSpace(entry.Key) == "" {
		return Competitor{}, ErrMissingKey
	}
	if entry.Cost <= 0 {
		return Competitor{}, fmt.Errorf("%w: competitor %s has cost %d", ErrInvalidCost, entry.Key, entry.Cost)
	}

	category := CategoryNone
	if entry.Category != nil {
		parsed, err := ParseCategory(*entry.Category)
		if err != nil {
			return Competitor{}, fmt.Errorf("competitor %s: %w", entry.Key, err)
		}
		category = parsed
	}

	c := Competitor{
		Key:      entry.Key,
		Name:     entry.Name,
		Team:     entry.Team,
		Cost:     entry.Cost,
		Category: category,
	}

	for source, value := range entry.Signals {
		if value != nil && (math.IsNaN(*value) || math.IsInf(*value, 0)) {
			return Competitor{}, fmt.Errorf("%w: competitor %s source %s", ErrInvalidSignal, entry.Key, source)
		}
		switch {
		case source == SourceExternalRating:
			c.ExternalRating = value
		case source == SourceSeasonForm:
			c.SeasonForm = value
		case source == SourceMarketOdds:
			if value != nil && *value <= 1 {
				return Competitor{}, fmt.Errorf("%w: competitor %s has decimal odds %.3f", ErrInvalidSignal, entry.Key, *value)
			}
			c.MarketOdds = value
		case strings.HasPrefix(source, SourceHistoryPrefix):
			age, err := strconv.Atoi(strings.TrimPrefix(source, SourceHistoryPrefix))
			if err != nil || age < 0 {
				return Competitor{}, fmt.Errorf("%w: competitor %s has history source %q", ErrInvalidSignal, entry.Key, source)
			}
			if value != nil {
				c.History = append(c.History, HistoricalResult{Age: age, Value: *value})
			}
		default:
			return Competitor{}, fmt.Errorf("%w: competitor %s has unknown source %q", ErrInvalidSignal, entry.Key, source)
		}
	}

	sort.Slice(c.History, func(i, j int) bool { return c.History[i].Age < c.History[j].Age })
	return c, nil
}

// HistoryValue returns the result Age seasons ago, if present.
func (c *Competitor) HistoryValue(age int) (float64, bool) {
	for _, h := range c.History {
		if h.Age == age {
			return h.Value, true
		}
	}
	return 0, false
}

// NewPool validates every entry and enforces key uniqueness.
func NewPool(entries []PoolEntry) ([]Competitor, error) {
	seen := make(map[string]struct{}, len(entries))
	pool := make([]Competitor, 0, len(entries))
	for _, entry := range entries {
		c, err := NewCompetitor(entry)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[c.Key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, c.Key)
		}
		seen[c.Key] = struct{}{}
		pool = append(pool, c)
	}
	return pool, nil
}
