package scoring

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EventClass identifies the race format a table applies to.
type EventClass string

const (
	OneDay    EventClass = "one_day"
	GrandTour EventClass = "grand_tour"
	StageRace EventClass = "stage_race"
)

// EventClasses lists every supported class.
func EventClasses() []EventClass {
	return []EventClass{OneDay, GrandTour, StageRace}
}

// ParseEventClass accepts the class name in any case.
func ParseEventClass(raw string) (EventClass, error) {
	c := EventClass(strings.ToLower(strings.TrimSpace(raw)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEventClass, raw)
	}
	return c, nil
}

// IsValid reports whether c is a supported class.
func (c EventClass) IsValid() bool {
	switch c {
	case OneDay, GrandTour, StageRace:
		return true
	}
	return false
}

// Tables is the set of scoring tables keyed by event class.
type Tables map[EventClass]*Table

// For returns the table for class.
func (ts Tables) For(class EventClass) (*Table, error) {
	t, ok := ts[class]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventClass, class)
	}
	return t, nil
}

// Classes returns the configured classes in sorted order.
func (ts Tables) Classes() []EventClass {
	out := make([]EventClass, 0, len(ts))
	for c := range ts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TableSpec is the configuration form of a Table.
type TableSpec struct {
	Finish      []int `mapstructure:"finish" yaml:"finish" validate:"required,min=1,dive,gte=0"`
	Assist      []int `mapstructure:"assist" yaml:"assist" validate:"max=3,dive,gte=0"`
	SectorBonus int   `mapstructure:"sector_bonus" yaml:"sector_bonus" validate:"gte=0"`
}

// Build converts the spec into an immutable Table.
func (s TableSpec) Build() (*Table, error) {
	return NewTable(s.Finish, s.Assist, s.SectorBonus)
}

type tablesFile struct {
	Tables map[string]TableSpec `mapstructure:"tables" validate:"required,dive,keys,eventclass,endkeys"`
}

// BuildTables validates specs and layers them over the defaults.
func BuildTables(specs map[string]TableSpec) (Tables, error) {
	v := validator.New()
	if err := v.RegisterValidation("eventclass", func(fl validator.FieldLevel) bool {
		return EventClass(fl.Field().String()).IsValid()
	}); err != nil {
		return nil, err
	}
	if err := v.Struct(tablesFile{Tables: specs}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}

	tables := DefaultTables()
	for name, spec := range specs {
		t, err := spec.Build()
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		tables[EventClass(name)] = t
	}
	return tables, nil
}

// LoadTables reads a YAML file with a top-level "tables" map. Classes the
// file omits keep their default tables.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scoring tables: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewBuffer([]byte(os.ExpandEnv(string(data))))); err != nil {
		return nil, fmt.Errorf("failed to parse scoring tables: %w", err)
	}

	file := tablesFile{}
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scoring tables: %w", err)
	}
	return BuildTables(file.Tables)
}

// DefaultTables returns the built-in points schedules.
func DefaultTables() Tables {
	return Tables{
		OneDay:    mustTable(oneDayFinish, []int{24, 12, 6}, 0),
		GrandTour: mustTable(grandTourFinish, []int{30, 15, 8}, 12),
		StageRace: mustTable(stageRaceFinish, []int{20, 10, 5}, 8),
	}
}

var (
	oneDayFinish = []int{
		400, 320, 260, 220, 190, 170, 150, 130, 115, 100,
		90, 80, 70, 62, 55, 48, 42, 36, 30, 25,
		22, 19, 16, 14, 12, 10, 8, 6, 4, 2,
	}
	grandTourFinish = []int{
		1200, 900, 750, 600, 500, 420, 360, 300, 250, 200,
		180, 160, 140, 120, 100, 90, 80, 70, 60, 50,
		45, 40, 35, 30, 25, 20, 16, 12, 8, 4,
	}
	stageRaceFinish = []int{
		600, 450, 360, 300, 250, 210, 180, 150, 125, 100,
		90, 80, 70, 60, 50, 45, 40, 35, 30, 25,
		22, 19, 16, 14, 12, 10, 8, 6, 4, 2,
	}
)

func mustTable(finish, assist []int, sectorBonus int) *Table {
	t, err := NewTable(finish, assist, sectorBonus)
	if err != nil {
		panic(err)
	}
	return t
}
