package models

// EventResult holds the actual fantasy points scored in a completed event.
type EventResult struct {
	EventID string         `json:"event_id"`
	Points  map[string]int `json:"points"`
}

// PointsFor returns the actual points for key; absent riders scored 0.
func (r *EventResult) PointsFor(key string) int {
	if r == nil || r.Points == nil {
		return 0
	}
	return r.Points[key]
}
