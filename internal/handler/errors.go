package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/dwell-backend-go/internal/conversation"
	"github.com/jengzang/dwell-backend-go/internal/spatial"
	"github.com/jengzang/dwell-backend-go/internal/tracker"
	"github.com/jengzang/dwell-backend-go/pkg/response"
)

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, tracker.ErrInvalidZone),
		errors.Is(err, tracker.ErrInvalidRadius),
		errors.Is(err, spatial.ErrInvalidCoordinate),
		errors.Is(err, conversation.ErrInvalidInput),
		errors.Is(err, conversation.ErrDraftIncomplete):
		return http.StatusBadRequest
	case errors.Is(err, tracker.ErrZoneNotFound),
		errors.Is(err, conversation.ErrDraftNotFound):
		return http.StatusNotFound
	case errors.Is(err, tracker.ErrZoneExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		response.InternalError(c, "internal error")
		return
	}
	response.Error(c, status, err.Error())
}
