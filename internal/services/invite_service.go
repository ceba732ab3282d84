package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/blueberry-insights/talentflow/internal/models"
	"github.com/blueberry-insights/talentflow/pkg/crypto"
)

const (
	defaultInviteExpiry     = 7 * 24 * time.Hour
	defaultInviteTokenBytes = 32
)

var (
	// ErrInviteNotFound indicates no invite matches the provided token.
	ErrInviteNotFound = errors.New("invite: not found")
	// ErrInviteOrgMismatch indicates the invite belongs to a different organization.
	ErrInviteOrgMismatch = errors.New("invite: organization mismatch")
	// ErrInviteRevoked indicates the invite was revoked by staff. Terminal.
	ErrInviteRevoked = errors.New("invite: revoked")
	// ErrInviteCompleted signals the assessment behind the invite is already
	// done. Resolve still returns the invite so callers can render a
	// completed view instead of a hard error.
	ErrInviteCompleted = errors.New("invite: already completed")
	// ErrInviteExpired indicates the invite token has passed its deadline.
	ErrInviteExpired = errors.New("invite: expired")

	// errInviteAlreadyLinked signals a concurrent start linked a different
	// submission first; callers reuse the winner's submission.
	errInviteAlreadyLinked = errors.New("invite: already linked to a submission")
)

// InviteOption customises InviteService behaviour.
type InviteOption func(*InviteService)

// WithInviteBaseURL configures the base URL used to create invite hyperlinks.
func WithInviteBaseURL(url string) InviteOption {
	return func(s *InviteService) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// WithInviteExpiry overrides the invite token lifetime.
func WithInviteExpiry(d time.Duration) InviteOption {
	return func(s *InviteService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithInviteTokenSize adjusts the random token length in bytes.
func WithInviteTokenSize(size int) InviteOption {
	return func(s *InviteService) {
		if size > 0 {
			s.tokenLength = size
		}
	}
}

// WithInviteClock injects a custom clock primarily for testing.
func WithInviteClock(clock func() time.Time) InviteOption {
	return func(s *InviteService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// InviteService manages the candidate invite lifecycle: staff-side creation
// and revocation, and candidate-side token resolution.
type InviteService struct {
	db          *gorm.DB
	baseURL     string
	expiry      time.Duration
	tokenLength int
	now         func() time.Time
}

// NewInviteService constructs an InviteService with the provided dependencies.
func NewInviteService(db *gorm.DB, opts ...InviteOption) (*InviteService, error) {
	if db == nil {
		return nil, errors.New("invite service: db is required")
	}

	service := &InviteService{
		db:          db,
		expiry:      defaultInviteExpiry,
		tokenLength: defaultInviteTokenBytes,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// CreateInviteInput describes a new invite. Exactly one of TestID and
// FlowItemID selects the invite's target.
type CreateInviteInput struct {
	OrgID       string
	CandidateID string
	TestID      *string
	FlowItemID  *string
	ExpiresAt   *time.Time
}

// Create mints an invite and returns the raw token exactly once. Only the
// token digest is persisted.
func (s *InviteService) Create(ctx context.Context, input CreateInviteInput) (invite *models.Invite, token, link string, err error) {
	if strings.TrimSpace(input.OrgID) == "" {
		return nil, "", "", errors.New("invite service: org id is required")
	}
	if strings.TrimSpace(input.CandidateID) == "" {
		return nil, "", "", errors.New("invite service: candidate id is required")
	}
	if (input.TestID == nil) == (input.FlowItemID == nil) {
		return nil, "", "", errors.New("invite service: exactly one of test id and flow item id is required")
	}

	rawToken, err := crypto.GenerateToken(s.tokenLength)
	if err != nil {
		return nil, "", "", fmt.Errorf("invite service: generate token: %w", err)
	}

	expiresAt := s.now().Add(s.expiry)
	if input.ExpiresAt != nil {
		expiresAt = *input.ExpiresAt
	}

	record := models.Invite{
		OrgID:       input.OrgID,
		CandidateID: input.CandidateID,
		TestID:      input.TestID,
		FlowItemID:  input.FlowItemID,
		TokenHash:   crypto.HashToken(rawToken),
		Status:      models.InviteStatusPending,
		ExpiresAt:   expiresAt,
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, "", "", fmt.Errorf("invite service: create invite: %w", err)
	}

	return &record, rawToken, s.inviteLink(rawToken), nil
}

// Resolve validates a candidate token against the invite lifecycle.
// Check order: existence, organization ownership, expiry, revocation,
// completion. Expiry wins over revoked/completed so a stale link always
// reads as expired regardless of status. On ErrInviteCompleted the invite is
// returned alongside the error so repeated visits stay idempotent.
func (s *InviteService) Resolve(ctx context.Context, token, orgID string) (*models.Invite, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInviteNotFound
	}

	var invite models.Invite
	if err := s.db.WithContext(ctx).
		Where("token_hash = ?", crypto.HashToken(token)).
		First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("invite service: find invite: %w", err)
	}

	if orgID != "" && invite.OrgID != orgID {
		return nil, ErrInviteOrgMismatch
	}
	if invite.Expired(s.now()) {
		return nil, ErrInviteExpired
	}
	if invite.Status == models.InviteStatusRevoked {
		return nil, ErrInviteRevoked
	}
	if invite.Status == models.InviteStatusCompleted {
		return &invite, ErrInviteCompleted
	}

	return &invite, nil
}

// LinkSubmission attaches the submission created on first start. Linking is
// idempotent for the same submission and refuses to relink to another one.
func (s *InviteService) LinkSubmission(ctx context.Context, inviteID, submissionID string) error {
	var invite models.Invite
	if err := s.db.WithContext(ctx).First(&invite, "id = ?", inviteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInviteNotFound
		}
		return fmt.Errorf("invite service: find invite: %w", err)
	}

	if invite.SubmissionID != nil {
		if *invite.SubmissionID == submissionID {
			return nil
		}
		return errInviteAlreadyLinked
	}

	return s.db.WithContext(ctx).
		Model(&invite).
		Update("submission_id", submissionID).Error
}

// MarkCompleted moves the invite to its terminal completed state.
func (s *InviteService) MarkCompleted(ctx context.Context, inviteID string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("id = ?", inviteID).
		Update("status", models.InviteStatusCompleted)
	if result.Error != nil {
		return fmt.Errorf("invite service: mark completed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInviteNotFound
	}
	return nil
}

// Revoke withdraws a pending invite. Completed invites stay untouched.
func (s *InviteService) Revoke(ctx context.Context, inviteID string) error {
	var invite models.Invite
	if err := s.db.WithContext(ctx).First(&invite, "id = ?", inviteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInviteNotFound
		}
		return fmt.Errorf("invite service: find invite: %w", err)
	}

	if invite.Status == models.InviteStatusCompleted {
		return ErrInviteCompleted
	}

	return s.db.WithContext(ctx).
		Model(&invite).
		Update("status", models.InviteStatusRevoked).Error
}

// List returns an organization's invites, optionally filtered by status.
// "expired" and "pending" are derived from ExpiresAt at read time.
func (s *InviteService) List(ctx context.Context, orgID, status string) ([]models.Invite, error) {
	var invites []models.Invite
	query := s.db.WithContext(ctx).Where("org_id = ?", orgID).Order("created_at DESC")
	if err := query.Find(&invites).Error; err != nil {
		return nil, fmt.Errorf("invite service: list invites: %w", err)
	}

	status = strings.TrimSpace(strings.ToLower(status))
	if status == "" {
		return invites, nil
	}

	now := s.now()
	filtered := make([]models.Invite, 0, len(invites))
	for _, invite := range invites {
		if deriveInviteStatus(&invite, now) == status {
			filtered = append(filtered, invite)
		}
	}
	return filtered, nil
}

func deriveInviteStatus(invite *models.Invite, now time.Time) string {
	switch invite.Status {
	case models.InviteStatusCompleted, models.InviteStatusRevoked:
		return invite.Status
	default:
		if invite.Expired(now) {
			return "expired"
		}
		return models.InviteStatusPending
	}
}

func (s *InviteService) inviteLink(token string) string {
	if s.baseURL == "" {
		return token
	}
	return fmt.Sprintf("%s/assessments/%s", s.baseURL, token)
}
