package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blueberry-insights/talentflow/internal/models"
	"github.com/blueberry-insights/talentflow/internal/services"
	appErrors "github.com/blueberry-insights/talentflow/pkg/errors"
	"github.com/blueberry-insights/talentflow/pkg/response"
)

// InviteHandler exposes the staff-facing invite lifecycle.
type InviteHandler struct {
	invites *services.InviteService
}

// NewInviteHandler constructs an InviteHandler.
func NewInviteHandler(invites *services.InviteService) (*InviteHandler, error) {
	if invites == nil {
		return nil, errors.New("invite handler: invite service is required")
	}
	return &InviteHandler{invites: invites}, nil
}

type createInviteRequest struct {
	OrgID       string     `json:"org_id" validate:"required"`
	CandidateID string     `json:"candidate_id" validate:"required"`
	TestID      *string    `json:"test_id"`
	FlowItemID  *string    `json:"flow_item_id"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type inviteCreatedResponse struct {
	Invite *models.Invite `json:"invite"`
	Token  string         `json:"token"`
	Link   string         `json:"link"`
}

// Create handles POST /api/invites. The raw token appears in this response
// exactly once; only its digest is stored.
func (h *InviteHandler) Create(c *gin.Context) {
	var req createInviteRequest
	if !bindAndValidate(c, &req) {
		return
	}

	invite, token, link, err := h.invites.Create(requestContext(c), services.CreateInviteInput{
		OrgID:       req.OrgID,
		CandidateID: req.CandidateID,
		TestID:      req.TestID,
		FlowItemID:  req.FlowItemID,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		response.Error(c, mapInviteError(err))
		return
	}

	response.Success(c, http.StatusCreated, inviteCreatedResponse{
		Invite: invite,
		Token:  token,
		Link:   link,
	})
}

// List handles GET /api/invites?org_id=...&status=...
func (h *InviteHandler) List(c *gin.Context) {
	orgID := strings.TrimSpace(c.Query("org_id"))
	if orgID == "" {
		orgID = orgScope(c)
	}
	if orgID == "" {
		response.Error(c, appErrors.NewBadRequest("org_id is required"))
		return
	}

	invites, err := h.invites.List(requestContext(c), orgID, c.Query("status"))
	if err != nil {
		response.Error(c, mapInviteError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"invites": invites})
}

// Revoke handles DELETE /api/invites/:id.
func (h *InviteHandler) Revoke(c *gin.Context) {
	if err := h.invites.Revoke(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, mapInviteError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

type linkSubmissionRequest struct {
	SubmissionID string `json:"submission_id" validate:"required"`
}

// Link handles POST /api/invites/:id/link, attaching an externally created
// submission to the invite.
func (h *InviteHandler) Link(c *gin.Context) {
	var req linkSubmissionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.invites.LinkSubmission(requestContext(c), c.Param("id"), req.SubmissionID); err != nil {
		response.Error(c, mapInviteError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"linked": true})
}

func mapInviteError(err error) error {
	switch {
	case errors.Is(err, services.ErrInviteNotFound):
		return appErrors.NewNotFound("invite.not_found", "Invite not found")
	case errors.Is(err, services.ErrInviteCompleted):
		return appErrors.NewConflict("invite.completed", "Completed invites cannot be changed")
	default:
		var appErr *appErrors.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return appErrors.NewBadRequest(err.Error())
	}
}
