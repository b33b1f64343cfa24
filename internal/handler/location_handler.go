package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/dwell-backend-go/internal/models"
	"github.com/jengzang/dwell-backend-go/internal/report"
	"github.com/jengzang/dwell-backend-go/internal/stats"
	"github.com/jengzang/dwell-backend-go/pkg/response"
)

// LocationService is the tracking surface the HTTP API needs
type LocationService interface {
	report.Source
	RecordSample(ctx context.Context, lat, lon float64, ts time.Time) error
}

// LocationHandler handles HTTP requests for samples, status and history
type LocationHandler struct {
	service LocationService
	now     func() time.Time
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(service LocationService) *LocationHandler {
	return &LocationHandler{service: service, now: time.Now}
}

// RecordSample handles POST /api/v1/location/samples
func (h *LocationHandler) RecordSample(c *gin.Context) {
	var sample models.Sample
	if err := c.ShouldBindJSON(&sample); err != nil {
		response.BadRequest(c, "Invalid sample: latitude and longitude are required")
		return
	}

	var ts time.Time
	if sample.Timestamp > 0 {
		ts = time.Unix(sample.Timestamp, 0).UTC()
	}

	if err := h.service.RecordSample(c.Request.Context(), *sample.Latitude, *sample.Longitude, ts); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, h.service.Status())
}

// GetStatus handles GET /api/v1/location/status
func (h *LocationHandler) GetStatus(c *gin.Context) {
	response.Success(c, h.service.Status())
}

// GetHistory handles GET /api/v1/location/history
func (h *LocationHandler) GetHistory(c *gin.Context) {
	var filter models.HistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if filter.MaxAgeDays < 0 {
		response.BadRequest(c, "maxAgeDays must not be negative")
		return
	}

	segments := h.service.History(filter.Query())
	response.Success(c, gin.H{
		"data":  segments,
		"count": len(segments),
	})
}

// GetShare handles GET /api/v1/location/share
func (h *LocationHandler) GetShare(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "0"))
	if err != nil || days < 0 {
		response.BadRequest(c, "Invalid days parameter")
		return
	}
	if days == 0 {
		days = h.service.RetentionDays()
	}

	response.Success(c, gin.H{
		"days":  days,
		"share": h.service.TimeShare(time.Duration(days) * 24 * time.Hour),
	})
}

// GetStats handles GET /api/v1/location/stats
func (h *LocationHandler) GetStats(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "0"))
	if err != nil || days < 0 {
		response.BadRequest(c, "Invalid days parameter")
		return
	}

	segments := h.service.History(models.HistoryQuery{MaxAge: time.Duration(days) * 24 * time.Hour})
	response.Success(c, stats.Summarize(segments))
}

// GetContext handles GET /api/v1/location/context
func (h *LocationHandler) GetContext(c *gin.Context) {
	text, err := report.Render(report.Build(h.service, h.now()))
	if err != nil {
		writeError(c, err)
		return
	}

	if c.Query("format") == "text" {
		c.String(http.StatusOK, text)
		return
	}
	response.Success(c, gin.H{"report": text})
}
