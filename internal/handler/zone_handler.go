package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/dwell-backend-go/internal/models"
	"github.com/jengzang/dwell-backend-go/pkg/response"
)

const defaultClosest = 3

// ZoneService manages the zone set
type ZoneService interface {
	AddZone(ctx context.Context, zone models.Zone) error
	RemoveZone(ctx context.Context, name string) error
	ListZones() []models.Zone
	ClosestZones(lat, lon float64, k int) ([]models.Zone, error)
}

// ZoneHandler handles HTTP requests for zones
type ZoneHandler struct {
	service ZoneService
}

// NewZoneHandler creates a new zone handler
func NewZoneHandler(service ZoneService) *ZoneHandler {
	return &ZoneHandler{service: service}
}

// ListZones handles GET /api/v1/zones
func (h *ZoneHandler) ListZones(c *gin.Context) {
	zones := h.service.ListZones()
	response.Success(c, gin.H{
		"data":  zones,
		"count": len(zones),
	})
}

// CreateZone handles POST /api/v1/zones
func (h *ZoneHandler) CreateZone(c *gin.Context) {
	var zone models.Zone
	if err := c.ShouldBindJSON(&zone); err != nil {
		response.BadRequest(c, "Invalid zone body")
		return
	}

	if err := h.service.AddZone(c.Request.Context(), zone); err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, zone)
}

// DeleteZone handles DELETE /api/v1/zones/:name
func (h *ZoneHandler) DeleteZone(c *gin.Context) {
	name := c.Param("name")
	if err := h.service.RemoveZone(c.Request.Context(), name); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"name": name})
}

// GetClosest handles GET /api/v1/zones/closest
func (h *ZoneHandler) GetClosest(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil {
		response.BadRequest(c, "lat and lon are required")
		return
	}

	k, err := strconv.Atoi(c.DefaultQuery("k", strconv.Itoa(defaultClosest)))
	if err != nil || k < 0 {
		response.BadRequest(c, "Invalid k parameter")
		return
	}

	zones, err := h.service.ClosestZones(lat, lon, k)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"data":  zones,
		"count": len(zones),
	})
}
