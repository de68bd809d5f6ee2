package handler

import (
	"errors"
	"net/http"

	inspectionapp "github.com/agrocert/backend/internal/application/inspection"
	"github.com/agrocert/backend/internal/domain/shared"
	"github.com/agrocert/backend/internal/interfaces/http/dto"
	"github.com/agrocert/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = middleware.RequestIDKey

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(RequestIDKey)
}

// authContext builds the caller scope from the JWT claims. Missing or
// malformed claims yield an error; the JWT middleware normally rejects those
// requests before they get here.
func authContext(c *gin.Context) (inspectionapp.AuthContext, error) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		return inspectionapp.AuthContext{}, errors.New("no authenticated caller")
	}
	userID, err := claims.UserUUID()
	if err != nil {
		return inspectionapp.AuthContext{}, err
	}
	communities, err := claims.Communities()
	if err != nil {
		return inspectionapp.AuthContext{}, err
	}
	return inspectionapp.AuthContext{
		UserID:       userID,
		Elevated:     claims.IsElevated(),
		CommunityIDs: communities,
	}, nil
}

// pathID parses the :id path parameter
func pathID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	return id, err == nil
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError maps service errors to HTTP responses. Business-rule failures
// carry their message; infrastructure and unknown failures are reported
// generically and attached to the gin context for the request logger.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := getRequestID(c)

	var surfaceErr *inspectionapp.SurfaceValidationError
	if errors.As(err, &surfaceErr) {
		details := make([]dto.ValidationDetail, 0, len(surfaceErr.Result.Errors))
		for _, msg := range surfaceErr.Result.Errors {
			details = append(details, dto.ValidationDetail{Field: "crop_details", Message: msg})
		}
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeSurfaceValidation, "Crop areas exceed the declared plot surfaces", requestID)
		resp.Error.Details = details
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		status := dto.GetHTTPStatus(code)
		message := domainErr.Message
		switch {
		case status >= http.StatusInternalServerError:
			_ = c.Error(err)
			message = "An unexpected error occurred"
		case status == http.StatusConflict:
			// the synchronization cause stays in the logs only
			_ = c.Error(err)
		}
		c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, requestID))
		return
	}

	_ = c.Error(err)
	h.InternalError(c, "An unexpected error occurred")
}
