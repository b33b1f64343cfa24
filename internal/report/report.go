// Package report renders the location context block handed to the assistant.
package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
	"time"

	"github.com/jengzang/dwell-backend-go/internal/models"
)

// StationaryKmh is the speed at or below which the user counts as stationary
const StationaryKmh = 1.2

// RecentDays is how many calendar days of segments are listed in detail
const RecentDays = 2

// UnknownLocation labels segments outside every zone in the detailed list
const UnknownLocation = "Unknown Location (no name provided)"

const timeLayout = "2006-01-02 15:04"

//go:embed location.tmpl
var locationTemplateSource string

var locationTemplate = template.Must(
	template.New("location").Option("missingkey=error").Parse(locationTemplateSource))

// Source is what a report is built from
type Source interface {
	ListZones() []models.Zone
	History(q models.HistoryQuery) []models.Segment
	TimeShare(window time.Duration) []models.ZoneShare
	Status() models.Status
	RetentionDays() int
}

// Input is everything Render needs
type Input struct {
	Zones         []models.Zone
	History       []models.Segment // closed segments, oldest first
	Share         []models.ZoneShare
	Status        models.Status
	RetentionDays int
	Now           time.Time
}

// Build collects an Input from src
func Build(src Source, now time.Time) Input {
	return Input{
		Zones:         src.ListZones(),
		History:       src.History(models.HistoryQuery{}),
		Share:         src.TimeShare(0),
		Status:        src.Status(),
		RetentionDays: src.RetentionDays(),
		Now:           now,
	}
}

type segmentView struct {
	Name, Entered, Exited, Duration string
}

type shareView struct {
	Name, Duration string
	Percent        float64
}

type templateData struct {
	Zones         []models.Zone
	Recent        []segmentView
	Share         []shareView
	RetentionDays int

	Tracking bool
	Position string
	InZone   bool
	ZoneName string
	Dwell    string
	Moving   bool
	SpeedKmh float64
}

// Render formats in as the LOCATION DATA block. Times are shown in the
// location of in.Now.
func Render(in Input) (string, error) {
	loc := in.Now.Location()
	y, m, d := in.Now.Date()
	since := time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, -(RecentDays - 1))

	data := templateData{
		Zones:         in.Zones,
		RetentionDays: in.RetentionDays,
	}

	for _, seg := range in.History {
		if seg.Open || seg.Entered.In(loc).Before(since) {
			continue
		}
		name := UnknownLocation
		if seg.Zone != nil {
			name = seg.Zone.Name
		}
		data.Recent = append(data.Recent, segmentView{
			Name:     name,
			Entered:  seg.Entered.In(loc).Format(timeLayout),
			Exited:   seg.Exited.In(loc).Format(timeLayout),
			Duration: FormatDuration(seg.Duration()),
		})
	}

	for _, s := range in.Share {
		data.Share = append(data.Share, shareView{
			Name:     s.Name,
			Duration: FormatDuration(s.Duration),
			Percent:  s.Percent,
		})
	}

	st := in.Status
	if st.Tracking {
		data.Tracking = true
		if c := st.LastCoordinate; c != nil {
			data.Position = fmt.Sprintf("%v, %v", c.Latitude, c.Longitude)
		} else {
			data.Position = "unknown"
		}
		if st.Zone != nil {
			data.InZone = true
			data.ZoneName = st.Zone.Name
		}
		data.Dwell = FormatDuration(st.Dwell)
		data.Moving = st.SpeedKmh > StationaryKmh
		data.SpeedKmh = st.SpeedKmh
	}

	var b bytes.Buffer
	if err := locationTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render location report: %w", err)
	}
	return b.String(), nil
}

// FormatDuration prints d as h:mm:ss, truncated to whole seconds
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}
