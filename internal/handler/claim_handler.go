package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"claimintake/internal/domain"
	"claimintake/internal/service"
)

// ClaimHandler handles submitted claim endpoints for claimants and adjusters.
type ClaimHandler struct {
	claimService service.ClaimService
}

// NewClaimHandler creates a new ClaimHandler.
func NewClaimHandler(claimService service.ClaimService) *ClaimHandler {
	return &ClaimHandler{claimService: claimService}
}

// ReviewRequest is the body of PUT /admin/claims/:id/review.
type ReviewRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// ListMine handles GET /api/v1/claims
func (h *ClaimHandler) ListMine(c *gin.Context) {
	claimantID, _, ok := extractAuthContext(c)
	if !ok {
		return
	}
	offset, limit := pagination(c)

	claims, total, err := h.claimService.ListMine(c.Request.Context(), claimantID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, claims, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetMine handles GET /api/v1/claims/:id
func (h *ClaimHandler) GetMine(c *gin.Context) {
	claimantID, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	claim, err := h.claimService.GetMine(c.Request.Context(), claimantID, c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, claim)
}

// ListForReview handles GET /api/v1/admin/claims?status=MANUAL_REVIEW
func (h *ClaimHandler) ListForReview(c *gin.Context) {
	offset, limit := pagination(c)
	status := domain.DecisionStatus(strings.ToUpper(c.Query("status")))

	claims, total, err := h.claimService.ListForReview(c.Request.Context(), status, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, claims, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Get handles GET /api/v1/admin/claims/:id
// The response includes presigned links to the archived artifacts when present.
func (h *ClaimHandler) Get(c *gin.Context) {
	claim, err := h.claimService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}

	links, err := h.claimService.ArtifactLinks(c.Request.Context(), claim.ID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"claim":     claim,
		"artifacts": links,
	})
}

// Review handles PUT /api/v1/admin/claims/:id/review
func (h *ClaimHandler) Review(c *gin.Context) {
	reviewerID, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	claim, err := h.claimService.Review(c.Request.Context(), service.ReviewInput{
		ClaimID:    c.Param("id"),
		ReviewerID: reviewerID,
		Status:     domain.DecisionStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
		Notes:      req.Notes,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, claim)
}
