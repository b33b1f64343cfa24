// Package geofence resolves coordinates against the set of user zones.
package geofence

import (
	"sort"

	"github.com/jengzang/dwell-backend-go/internal/models"
	"github.com/jengzang/dwell-backend-go/internal/spatial"
)

// Index is a read-only snapshot of the zone set
type Index struct {
	zones    []models.Zone
	distance spatial.DistanceFunc
}

// New creates an index over a copy of zones using great-circle distance
func New(zones []models.Zone) *Index {
	return NewWithDistance(zones, spatial.HaversineDistance)
}

// NewWithDistance creates an index with a custom distance function
func NewWithDistance(zones []models.Zone, distance spatial.DistanceFunc) *Index {
	if distance == nil {
		distance = spatial.HaversineDistance
	}
	cp := make([]models.Zone, len(zones))
	copy(cp, zones)
	return &Index{zones: cp, distance: distance}
}

// Len returns the number of zones
func (idx *Index) Len() int {
	return len(idx.zones)
}

type candidate struct {
	zone     models.Zone
	distance float64
}

// Resolve returns the zone containing the point. When zones overlap the one
// whose center is closest wins; equal distances fall back to name order.
// Returns nil if the point lies outside every zone.
func (idx *Index) Resolve(lat, lon float64) *models.Zone {
	var best *candidate
	for _, z := range idx.zones {
		d := idx.distance(lat, lon, z.Latitude, z.Longitude)
		if d > z.Radius {
			continue
		}
		if best == nil || d < best.distance || (d == best.distance && z.Name < best.zone.Name) {
			best = &candidate{zone: z, distance: d}
		}
	}
	if best == nil {
		return nil
	}
	zone := best.zone
	return &zone
}

// Closest returns up to k zones ordered by center distance, ignoring radius
func (idx *Index) Closest(lat, lon float64, k int) []models.Zone {
	if k <= 0 || len(idx.zones) == 0 {
		return []models.Zone{}
	}

	candidates := make([]candidate, 0, len(idx.zones))
	for _, z := range idx.zones {
		candidates = append(candidates, candidate{
			zone:     z,
			distance: idx.distance(lat, lon, z.Latitude, z.Longitude),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance == candidates[j].distance {
			return candidates[i].zone.Name < candidates[j].zone.Name
		}
		return candidates[i].distance < candidates[j].distance
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	out := make([]models.Zone, 0, k)
	for _, c := range candidates[:k] {
		out = append(out, c.zone)
	}
	return out
}
