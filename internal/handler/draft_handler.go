package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/dwell-backend-go/internal/conversation"
	"github.com/jengzang/dwell-backend-go/internal/models"
	"github.com/jengzang/dwell-backend-go/pkg/response"
)

// DraftStore holds per-conversation zone drafts
type DraftStore interface {
	Start(id string) conversation.Draft
	Update(id string, in conversation.DraftInput) (conversation.Draft, error)
	Get(id string) (conversation.Draft, bool)
	Commit(ctx context.Context, id string) (models.Zone, error)
	Cancel(id string) bool
}

// DraftHandler drives multi-turn zone creation
type DraftHandler struct {
	drafts DraftStore
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(drafts DraftStore) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

// Start handles POST /api/v1/conversations/:id/zone-draft
func (h *DraftHandler) Start(c *gin.Context) {
	response.Created(c, h.drafts.Start(c.Param("id")))
}

// Get handles GET /api/v1/conversations/:id/zone-draft
func (h *DraftHandler) Get(c *gin.Context) {
	d, ok := h.drafts.Get(c.Param("id"))
	if !ok {
		response.NotFound(c, conversation.ErrDraftNotFound.Error())
		return
	}
	response.Success(c, d)
}

// Update handles PATCH /api/v1/conversations/:id/zone-draft
func (h *DraftHandler) Update(c *gin.Context) {
	var in conversation.DraftInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "Invalid draft body")
		return
	}

	d, err := h.drafts.Update(c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, d)
}

// Cancel handles DELETE /api/v1/conversations/:id/zone-draft
func (h *DraftHandler) Cancel(c *gin.Context) {
	if !h.drafts.Cancel(c.Param("id")) {
		response.NotFound(c, conversation.ErrDraftNotFound.Error())
		return
	}
	response.Success(c, gin.H{"cancelled": true})
}

// Commit handles POST /api/v1/conversations/:id/zone-draft/commit
func (h *DraftHandler) Commit(c *gin.Context) {
	zone, err := h.drafts.Commit(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, zone)
}
