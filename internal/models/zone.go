package models

// Zone is a named circular geofence defined by the user
type Zone struct {
	Name        string  `json:"name" yaml:"name" db:"name"`
	Description string  `json:"description" yaml:"description" db:"description"`
	Latitude    float64 `json:"latitude" yaml:"latitude" db:"latitude"`
	Longitude   float64 `json:"longitude" yaml:"longitude" db:"longitude"`
	Radius      float64 `json:"radius" yaml:"radius" db:"radius"` // Meters
}

// Coordinate is a WGS84 position in degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SameZone reports whether two resolved zones denote the same place.
// Zones are compared by name only; nil means the undefined location.
func SameZone(a, b *Zone) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Name == b.Name
}

// ZoneName returns the zone name or "" for the undefined location
func ZoneName(z *Zone) string {
	if z == nil {
		return ""
	}
	return z.Name
}
