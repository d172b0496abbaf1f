package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"claimintake/internal/domain"
	"claimintake/internal/middleware"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
// Client-facing validation errors carry their own message so the caller can
// see which field or step was wrong.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrRepositoryFailure):
		return http.StatusServiceUnavailable, "REPOSITORY_FAILURE", "claim could not be stored; retry the submission"
	case errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway, "MALFORMED_RESPONSE", "an inference service returned an unreadable response"
	case errors.Is(err, domain.ErrRemoteServiceFailure):
		return http.StatusBadGateway, "REMOTE_SERVICE_FAILURE", err.Error()
	case errors.Is(err, domain.ErrDraftNotFound):
		return http.StatusNotFound, "DRAFT_NOT_FOUND", "draft not found"
	case errors.Is(err, domain.ErrClaimNotFound):
		return http.StatusNotFound, "CLAIM_NOT_FOUND", "claim not found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "forbidden"
	case errors.Is(err, domain.ErrDraftDiscarded):
		return http.StatusGone, "DRAFT_DISCARDED", "draft has been discarded"
	case errors.Is(err, domain.ErrFetchSuperseded):
		return http.StatusConflict, "FETCH_SUPERSEDED", "a newer upload replaced this one"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION", err.Error()
	case errors.Is(err, domain.ErrFieldNotEditable):
		return http.StatusConflict, "FIELD_NOT_EDITABLE", err.Error()
	case errors.Is(err, domain.ErrUnsupportedArtifact):
		return http.StatusBadRequest, "UNSUPPORTED_ARTIFACT", "unsupported file type; allowed: jpg, png, pdf for policy documents"
	case errors.Is(err, domain.ErrArtifactTooLarge):
		return http.StatusRequestEntityTooLarge, "ARTIFACT_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrInvalidFieldValue):
		return http.StatusBadRequest, "INVALID_FIELD_VALUE", err.Error()
	case errors.Is(err, domain.ErrUnknownField):
		return http.StatusBadRequest, "UNKNOWN_FIELD", err.Error()
	case errors.Is(err, domain.ErrMissingSelection):
		return http.StatusBadRequest, "MISSING_SELECTION", err.Error()
	case errors.Is(err, domain.ErrEvidenceMismatch):
		return http.StatusUnprocessableEntity, "EVIDENCE_MISMATCH", err.Error()
	case errors.Is(err, domain.ErrInvalidReviewStatus):
		return http.StatusBadRequest, "INVALID_REVIEW_STATUS", "invalid review status; allowed: APPROVED, REJECTED, MANUAL_REVIEW"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// extractAuthContext extracts the caller's claimant ID and role from the request context.
// Returns false if auth context is missing (error response already written).
func extractAuthContext(c *gin.Context) (claimantID, role string, ok bool) {
	claimantID, err := middleware.GetClaimantID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing claimant context")
		return "", "", false
	}
	return claimantID, middleware.GetRole(c), true
}

// pagination reads offset and limit query params, clamping limit to [1,100].
func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	RespondError(c, status, code, msg)
}
