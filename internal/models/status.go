package models

import "time"

// TrackerState is the live tracking state persisted between restarts
type TrackerState struct {
	LastCoordinate *Coordinate `json:"lastCoordinate,omitempty"`
	LastSampleTime time.Time   `json:"lastSampleTime"`
	Current        *Segment    `json:"current,omitempty"`
	SpeedKmh       float64     `json:"speedKmh"`
}

// Status is a read-only snapshot of the tracker for display
type Status struct {
	Tracking       bool          `json:"tracking"`
	Zone           *Zone         `json:"zone,omitempty"`
	Entered        time.Time     `json:"entered,omitempty"`
	Dwell          time.Duration `json:"dwell"`
	SpeedKmh       float64       `json:"speedKmh"`
	LastCoordinate *Coordinate   `json:"lastCoordinate,omitempty"`
}

// ZoneShare is the time spent in one zone over a window
type ZoneShare struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Percent  float64       `json:"percent"`
}

// Sample is a raw location fix submitted by a client
type Sample struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Timestamp int64    `json:"timestamp"` // Unix seconds, 0 means now
}
