package spatial

import (
	"math"
	"time"

	"github.com/golang/geo/s2"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters

	// MetersPerSecondToKmh converts m/s into km/h
	MetersPerSecondToKmh = 3.6
)

// HaversineDistance calculates the great-circle distance between two points in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// DistanceFunc measures the distance between two coordinates in meters
type DistanceFunc func(lat1, lon1, lat2, lon2 float64) float64

// DestinationPoint calculates the destination point given a start point, bearing, and distance
// bearing: degrees (0-360), distance: meters
func DestinationPoint(lat, lon, bearing, distance float64) (float64, float64) {
	p := s2.LatLngFromDegrees(lat, lon)
	bearingRad := bearing * math.Pi / 180
	angularDistance := distance / EarthRadiusMeters

	latRad := p.Lat.Radians()
	lonRad := p.Lng.Radians()

	lat2 := math.Asin(math.Sin(latRad)*math.Cos(angularDistance) +
		math.Cos(latRad)*math.Sin(angularDistance)*math.Cos(bearingRad))

	lon2 := lonRad + math.Atan2(
		math.Sin(bearingRad)*math.Sin(angularDistance)*math.Cos(latRad),
		math.Cos(angularDistance)-math.Sin(latRad)*math.Sin(lat2))

	return lat2 * 180 / math.Pi, lon2 * 180 / math.Pi
}

// SpeedKmh converts a distance covered over elapsed time into km/h.
// ok is false when elapsed is not positive.
func SpeedKmh(distanceMeters float64, elapsed time.Duration) (speed float64, ok bool) {
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		return 0, false
	}
	return distanceMeters / seconds * MetersPerSecondToKmh, true
}
