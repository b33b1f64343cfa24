// Package stats derives dwell statistics from closed location segments.
package stats

import (
	"sort"
	"time"

	"github.com/jengzang/dwell-backend-go/internal/models"
	"github.com/jengzang/dwell-backend-go/internal/tracker"
)

// ZoneStats summarises the visits to one zone
type ZoneStats struct {
	Name    string        `json:"name"`
	Visits  int           `json:"visits"`
	Total   time.Duration `json:"total"`
	Mean    time.Duration `json:"mean"`
	Median  time.Duration `json:"median"`
	P90     time.Duration `json:"p90"`
	Longest time.Duration `json:"longest"`
}

// Summary is the result of Summarize
type Summary struct {
	Zones    []ZoneStats   `json:"zones"`
	Segments int           `json:"segments"`
	Total    time.Duration `json:"total"`
	// Diversity is the normalized entropy of time spent per zone:
	// 0 when all time is in one zone, 1 when it is spread evenly.
	Diversity float64 `json:"diversity"`
}

// Summarize groups segments by zone name and computes per-zone dwell
// statistics. Open segments are skipped. Segments outside every zone are
// grouped under the unknown zone label. Zones are ordered by total time,
// then by name.
func Summarize(segments []models.Segment) Summary {
	durations := make(map[string][]float64)
	var summary Summary

	for _, seg := range segments {
		if seg.Open {
			continue
		}
		name := tracker.UnknownZone
		if seg.Zone != nil {
			name = seg.Zone.Name
		}
		d := seg.Duration()
		if d < 0 {
			d = 0
		}
		durations[name] = append(durations[name], float64(d))
		summary.Segments++
		summary.Total += d
	}

	totals := make([]float64, 0, len(durations))
	summary.Zones = make([]ZoneStats, 0, len(durations))
	for name, values := range durations {
		zs := ZoneStats{Name: name, Visits: len(values)}
		for _, v := range values {
			zs.Total += time.Duration(v)
			if time.Duration(v) > zs.Longest {
				zs.Longest = time.Duration(v)
			}
		}
		zs.Mean = zs.Total / time.Duration(zs.Visits)
		zs.Median = time.Duration(Median(values))
		zs.P90 = time.Duration(Percentile(values, 90))

		summary.Zones = append(summary.Zones, zs)
		totals = append(totals, float64(zs.Total))
	}

	sort.Slice(summary.Zones, func(i, j int) bool {
		if summary.Zones[i].Total == summary.Zones[j].Total {
			return summary.Zones[i].Name < summary.Zones[j].Name
		}
		return summary.Zones[i].Total > summary.Zones[j].Total
	})
	summary.Diversity = NormalizedEntropy(totals)
	return summary
}
