package handler

import (
	"github.com/gin-gonic/gin"

	"claimintake/internal/domain"
)

// ProfileHandler serves the claim type catalogue the intake form is built from.
type ProfileHandler struct {
	profiles domain.ProfileTable
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles domain.ProfileTable) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// List handles GET /api/v1/claim-types
func (h *ProfileHandler) List(c *gin.Context) {
	RespondOK(c, h.profiles.List())
}
