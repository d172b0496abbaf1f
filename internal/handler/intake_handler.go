package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"claimintake/internal/domain"
	"claimintake/internal/intake"
	"claimintake/internal/service"
)

// IntakeHandler handles the claim intake flow endpoints.
type IntakeHandler struct {
	intakeService service.IntakeService
	maxUpload     int64
}

// NewIntakeHandler creates a new IntakeHandler. maxUpload bounds the bytes read
// from a multipart file; the intake machine enforces the exact artifact limit.
func NewIntakeHandler(intakeService service.IntakeService, maxUpload int64) *IntakeHandler {
	return &IntakeHandler{intakeService: intakeService, maxUpload: maxUpload}
}

// SetFieldRequest is the body of PUT /drafts/:id/fields/:name.
type SetFieldRequest struct {
	Value string `json:"value"`
}

// Start handles POST /api/v1/drafts
func (h *IntakeHandler) Start(c *gin.Context) {
	claimantID, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	draft, err := h.intakeService.Start(c.Request.Context(), claimantID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, draft)
}

// Get handles GET /api/v1/drafts/:id
func (h *IntakeHandler) Get(c *gin.Context) {
	claimantID, draftID, ok := h.draftRef(c)
	if !ok {
		return
	}

	draft, err := h.intakeService.Get(c.Request.Context(), claimantID, draftID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, draft)
}

// SetField handles PUT /api/v1/drafts/:id/fields/:name
func (h *IntakeHandler) SetField(c *gin.Context) {
	claimantID, draftID, ok := h.draftRef(c)
	if !ok {
		return
	}

	var req SetFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	draft, err := h.intakeService.SetField(c.Request.Context(), claimantID, draftID, c.Param("name"), req.Value)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, draft)
}

// AttachEvidence handles POST /api/v1/drafts/:id/evidence
func (h *IntakeHandler) AttachEvidence(c *gin.Context) {
	h.attach(c, h.intakeService.AttachEvidence)
}

// AttachPolicyDocument handles POST /api/v1/drafts/:id/policy-document
func (h *IntakeHandler) AttachPolicyDocument(c *gin.Context) {
	h.attach(c, h.intakeService.AttachPolicyDocument)
}

type attachFunc func(ctx context.Context, claimantID string, draftID uuid.UUID, up intake.ArtifactUpload) (*domain.ClaimDraft, error)

// attach reads the multipart "file" field and hands it to the intake service.
// A fetch failure still leaves the artifact attached, so the error response
// is enough for the client to show a retry.
func (h *IntakeHandler) attach(c *gin.Context, fn attachFunc) {
	claimantID, draftID, ok := h.draftRef(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	if h.maxUpload > 0 && header.Size > h.maxUpload {
		HandleError(c, domain.ErrArtifactTooLarge)
		return
	}
	var r io.Reader = file
	if h.maxUpload > 0 {
		r = io.LimitReader(file, h.maxUpload+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FILE", "failed to read uploaded file")
		return
	}

	draft, err := fn(c.Request.Context(), claimantID, draftID, intake.ArtifactUpload{
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, draft)
}

// RetryFetch handles POST /api/v1/drafts/:id/fetch
func (h *IntakeHandler) RetryFetch(c *gin.Context) {
	claimantID, draftID, ok := h.draftRef(c)
	if !ok {
		return
	}

	draft, err := h.intakeService.RetryFetch(c.Request.Context(), claimantID, draftID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, draft)
}

// Advance handles POST /api/v1/drafts/:id/advance
// A blocked transition is a 200 with advanced=false and the reason.
func (h *IntakeHandler) Advance(c *gin.Context) {
	claimantID, draftID, ok := h.draftRef(c)
	if !ok {
		return
	}

	result, err := h.intakeService.Advance(c.Request.Context(), claimantID, draftID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// Back handles POST /api/v1/drafts/:id/back
func (h *IntakeHandler) Back(c *gin.Context) {
	claimantID, draftID, ok := h.draftRef(c)
	if !ok {
		return
	}

	result, err := h.intakeService.Back(c.Request.Context(), claimantID, draftID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// Submit handles POST /api/v1/drafts/:id/submit
func (h *IntakeHandler) Submit(c *gin.Context) {
	claimantID, draftID, ok := h.draftRef(c)
	if !ok {
		return
	}

	receipt, err := h.intakeService.Submit(c.Request.Context(), claimantID, draftID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, receipt)
}

// Cancel handles DELETE /api/v1/drafts/:id
func (h *IntakeHandler) Cancel(c *gin.Context) {
	claimantID, draftID, ok := h.draftRef(c)
	if !ok {
		return
	}

	if err := h.intakeService.Cancel(c.Request.Context(), claimantID, draftID); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "draft discarded"})
}

func (h *IntakeHandler) draftRef(c *gin.Context) (claimantID string, draftID uuid.UUID, ok bool) {
	claimantID, _, ok = extractAuthContext(c)
	if !ok {
		return "", uuid.Nil, false
	}
	draftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid draft ID")
		return "", uuid.Nil, false
	}
	return claimantID, draftID, true
}
