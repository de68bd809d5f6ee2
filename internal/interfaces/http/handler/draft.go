package handler

import (
	"context"

	inspectionapp "github.com/agrocert/backend/internal/application/inspection"
	"github.com/agrocert/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// DraftService stores unfinished fichas captured offline
type DraftService interface {
	SaveDraft(ctx context.Context, auth inspectionapp.AuthContext, req inspectionapp.SaveDraftRequest) (*inspectionapp.DraftResponse, error)
	GetDraft(ctx context.Context, auth inspectionapp.AuthContext, req inspectionapp.DraftKeyRequest) (*inspectionapp.DraftResponse, error)
	DeleteDraft(ctx context.Context, auth inspectionapp.AuthContext, req inspectionapp.DraftKeyRequest) error
}

// DraftHandler handles the saved-draft endpoints
type DraftHandler struct {
	BaseHandler
	service DraftService
}

// NewDraftHandler creates a new DraftHandler
func NewDraftHandler(service DraftService) *DraftHandler {
	return &DraftHandler{service: service}
}

// RegisterRoutes mounts the draft endpoints under /borradores
func (h *DraftHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/borradores")
	g.PUT("", h.Save)
	g.GET("", h.Get)
	g.DELETE("", h.Delete)
}

// Save stores or replaces the caller's draft for a producer and year.
// PUT /borradores
func (h *DraftHandler) Save(c *gin.Context) {
	auth, err := authContext(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var req inspectionapp.SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	resp, err := h.service.SaveDraft(c.Request.Context(), auth, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get returns the caller's draft.
// GET /borradores?producer_code=..&gestion_year=..
func (h *DraftHandler) Get(c *gin.Context) {
	auth, req, ok := h.key(c)
	if !ok {
		return
	}
	resp, err := h.service.GetDraft(c.Request.Context(), auth, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete discards the caller's draft.
// DELETE /borradores?producer_code=..&gestion_year=..
func (h *DraftHandler) Delete(c *gin.Context) {
	auth, req, ok := h.key(c)
	if !ok {
		return
	}
	if err := h.service.DeleteDraft(c.Request.Context(), auth, req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *DraftHandler) key(c *gin.Context) (inspectionapp.AuthContext, inspectionapp.DraftKeyRequest, bool) {
	var req inspectionapp.DraftKeyRequest
	auth, err := authContext(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return auth, req, false
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return auth, req, false
	}
	return auth, req, true
}
