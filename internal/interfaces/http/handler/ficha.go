package handler

import (
	"context"

	inspectionapp "github.com/agrocert/backend/internal/application/inspection"
	"github.com/agrocert/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FichaService is the part of the inspection service the HTTP layer uses
type FichaService interface {
	Create(ctx context.Context, auth inspectionapp.AuthContext, req inspectionapp.CreateFichaRequest) (*inspectionapp.FichaCompletaResponse, error)
	Get(ctx context.Context, auth inspectionapp.AuthContext, id uuid.UUID) (*inspectionapp.FichaCompletaResponse, error)
	List(ctx context.Context, auth inspectionapp.AuthContext, req inspectionapp.ListFichasRequest) ([]inspectionapp.FichaResponse, int64, error)
	Update(ctx context.Context, auth inspectionapp.AuthContext, id uuid.UUID, req inspectionapp.UpdateFichaRequest) (*inspectionapp.FichaCompletaResponse, error)
	SubmitForReview(ctx context.Context, auth inspectionapp.AuthContext, id uuid.UUID) (*inspectionapp.SubmitForReviewResponse, error)
	Approve(ctx context.Context, auth inspectionapp.AuthContext, id uuid.UUID, req inspectionapp.ApproveFichaRequest) (*inspectionapp.FichaResponse, error)
	Reject(ctx context.Context, auth inspectionapp.AuthContext, id uuid.UUID, req inspectionapp.RejectFichaRequest) (*inspectionapp.FichaResponse, error)
	ReturnToDraft(ctx context.Context, auth inspectionapp.AuthContext, id uuid.UUID) (*inspectionapp.FichaResponse, error)
	Deactivate(ctx context.Context, auth inspectionapp.AuthContext, id uuid.UUID) error
}

// FichaHandler handles the inspection ficha endpoints
type FichaHandler struct {
	BaseHandler
	service FichaService
}

// NewFichaHandler creates a new FichaHandler
func NewFichaHandler(service FichaService) *FichaHandler {
	return &FichaHandler{service: service}
}

// RegisterRoutes mounts the ficha endpoints under /fichas
func (h *FichaHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/fichas")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/enviar-revision", h.SubmitForReview)
	g.POST("/:id/aprobar", h.Approve)
	g.POST("/:id/rechazar", h.Reject)
	g.POST("/:id/devolver-borrador", h.ReturnToDraft)
}

// scope resolves the caller and, when the route has one, the ficha id.
// It writes the error response itself and reports whether to continue.
func (h *FichaHandler) scope(c *gin.Context, withID bool) (inspectionapp.AuthContext, uuid.UUID, bool) {
	auth, err := authContext(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return auth, uuid.Nil, false
	}
	if !withID {
		return auth, uuid.Nil, true
	}
	id, ok := pathID(c)
	if !ok {
		h.BadRequest(c, "Invalid ficha ID format")
		return auth, uuid.Nil, false
	}
	return auth, id, true
}

// Create opens a ficha with any sections captured so far.
// POST /fichas
func (h *FichaHandler) Create(c *gin.Context) {
	auth, _, ok := h.scope(c, false)
	if !ok {
		return
	}
	var req inspectionapp.CreateFichaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	resp, err := h.service.Create(c.Request.Context(), auth, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns a ficha with all of its sections.
// GET /fichas/:id
func (h *FichaHandler) Get(c *gin.Context) {
	auth, id, ok := h.scope(c, true)
	if !ok {
		return
	}
	resp, err := h.service.Get(c.Request.Context(), auth, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns a page of fichas visible to the caller.
// GET /fichas
func (h *FichaHandler) List(c *gin.Context) {
	auth, _, ok := h.scope(c, false)
	if !ok {
		return
	}
	var req inspectionapp.ListFichasRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	items, total, err := h.service.List(c.Request.Context(), auth, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, items, total, page, pageSize)
}

// Update edits a draft ficha. Omitted sections are left untouched.
// PUT /fichas/:id
func (h *FichaHandler) Update(c *gin.Context) {
	auth, id, ok := h.scope(c, true)
	if !ok {
		return
	}
	var req inspectionapp.UpdateFichaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	resp, err := h.service.Update(c.Request.Context(), auth, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete soft-deletes a ficha.
// DELETE /fichas/:id
func (h *FichaHandler) Delete(c *gin.Context) {
	auth, id, ok := h.scope(c, true)
	if !ok {
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), auth, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// SubmitForReview moves a draft to revision after the surface check.
// POST /fichas/:id/enviar-revision
func (h *FichaHandler) SubmitForReview(c *gin.Context) {
	auth, id, ok := h.scope(c, true)
	if !ok {
		return
	}
	resp, err := h.service.SubmitForReview(c.Request.Context(), auth, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Approve approves a ficha under review and synchronizes it downstream.
// A failed synchronization answers 409 with the ficha already rechazado.
// POST /fichas/:id/aprobar
func (h *FichaHandler) Approve(c *gin.Context) {
	auth, id, ok := h.scope(c, true)
	if !ok {
		return
	}
	var req inspectionapp.ApproveFichaRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}
	resp, err := h.service.Approve(c.Request.Context(), auth, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reject rejects a ficha under review with a reason.
// POST /fichas/:id/rechazar
func (h *FichaHandler) Reject(c *gin.Context) {
	auth, id, ok := h.scope(c, true)
	if !ok {
		return
	}
	var req inspectionapp.RejectFichaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	resp, err := h.service.Reject(c.Request.Context(), auth, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ReturnToDraft sends a ficha under review back to its inspector.
// POST /fichas/:id/devolver-borrador
func (h *FichaHandler) ReturnToDraft(c *gin.Context) {
	auth, id, ok := h.scope(c, true)
	if !ok {
		return
	}
	resp, err := h.service.ReturnToDraft(c.Request.Context(), auth, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
