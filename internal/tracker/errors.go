package tracker

import "errors"

var (
	// ErrInvalidZone is returned for a zone without a name
	ErrInvalidZone = errors.New("invalid zone")
	// ErrInvalidRadius is returned for a zone radius that is not positive
	ErrInvalidRadius = errors.New("zone radius must be positive")
	// ErrZoneExists is returned when adding a zone whose name is taken
	ErrZoneExists = errors.New("zone already exists")
	// ErrZoneNotFound is returned when removing an unknown zone
	ErrZoneNotFound = errors.New("zone not found")
)
