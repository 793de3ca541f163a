package datasource

import (
	"context"
	"errors"

	"github.com/yourusername/peloton/internal/models"
)

// ErrInvalidData is returned when a source delivers rows that fail validation
var ErrInvalidData = errors.New("invalid pool data")

// ErrSourceUnavailable is returned by Check when a source cannot serve requests
var ErrSourceUnavailable = errors.New("pool source unavailable")

// Checker is implemented by sources that can report their own availability
type Checker interface {
	Check(ctx context.Context) error
}

// PoolSource delivers competitor pools and completed results for events
type PoolSource interface {
	// FetchPool retrieves and validates the competitor pool for an event
	FetchPool(ctx context.Context, eventID string) (*EventPool, error)

	// FetchResult retrieves the actual points scored in a completed event
	FetchResult(ctx context.Context, eventID string) (*models.EventResult, error)

	// Name returns the name of the data source
	Name() string
}

// EventPool is a validated competitor pool for one event
type EventPool struct {
	EventID     string
	EventClass  string
	Competitors []models.Competitor
}

// PoolDocument is the wire format shared by the file and HTTP sources
type PoolDocument struct {
	EventID    string    `json:"event_id" validate:"required"`
	EventClass string    `json:"event_class"`
	Rows       []PoolRow `json:"rows" validate:"required,min=1,dive"`
}

// PoolRow is a pool entry whose market price may also arrive as a raw
// odds string, either decimal ("6.5") or fractional ("11/2").
type PoolRow struct {
	models.PoolEntry
	Odds *string `json:"odds"`
}
