package models

import "time"

// Segment represents a continuous dwell period attributed to at most one zone.
// Zone is a snapshot taken when the segment was opened, not a live reference.
type Segment struct {
	ID      string    `json:"id" db:"id"`
	Zone    *Zone     `json:"zone,omitempty"` // nil while outside every zone
	Entered time.Time `json:"entered" db:"entered"`
	Exited  time.Time `json:"exited" db:"exited"`
	Open    bool      `json:"open,omitempty"` // Still in progress, Exited is not meaningful
}

// Duration returns the dwell time of a closed segment
func (s Segment) Duration() time.Duration {
	return s.Exited.Sub(s.Entered)
}

// Transition is emitted when the resolved zone changes
type Transition struct {
	From      *Zone     `json:"from,omitempty"`
	To        *Zone     `json:"to,omitempty"`
	At        time.Time `json:"at"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

// HistoryQuery controls which segments History returns
type HistoryQuery struct {
	MaxAge      time.Duration // Zero keeps everything still retained
	IncludeOpen bool
	NewestFirst bool
}

// HistoryFilter represents query parameters for GET /location/history
type HistoryFilter struct {
	MaxAgeDays  int  `form:"maxAgeDays"`
	IncludeOpen bool `form:"includeOpen"`
	NewestFirst bool `form:"newestFirst"`
}

// Query converts the filter into a HistoryQuery
func (f HistoryFilter) Query() HistoryQuery {
	q := HistoryQuery{
		IncludeOpen: f.IncludeOpen,
		NewestFirst: f.NewestFirst,
	}
	if f.MaxAgeDays > 0 {
		q.MaxAge = time.Duration(f.MaxAgeDays) * 24 * time.Hour
	}
	return q
}
