package spatial

import (
	"errors"
	"math"

	"github.com/golang/geo/s2"
)

// ErrInvalidCoordinate is returned for latitudes outside [-90, 90],
// longitudes outside [-180, 180] and non-finite values
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// ValidateCoordinate checks that lat/lon describe a point on the globe
func ValidateCoordinate(lat, lon float64) error {
	if math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return ErrInvalidCoordinate
	}
	if !s2.LatLngFromDegrees(lat, lon).IsValid() {
		return ErrInvalidCoordinate
	}
	return nil
}
