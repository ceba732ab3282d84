package models

import "time"

// Invite statuses persisted in the database. Expiry is never persisted as a
// status: it is derived from ExpiresAt at read time.
const (
	InviteStatusPending   = "pending"
	InviteStatusCompleted = "completed"
	InviteStatusRevoked   = "revoked"
)

// Invite is a single-use, time-bounded, token-authenticated grant letting an
// unauthenticated candidate take one test or one flow. Exactly one of TestID
// and FlowItemID is set.
type Invite struct {
	BaseModel

	OrgID       string  `gorm:"type:uuid;not null;index" json:"org_id"`
	CandidateID string  `gorm:"type:uuid;not null;index" json:"candidate_id"`
	TestID      *string `gorm:"type:uuid;index" json:"test_id,omitempty"`
	FlowItemID  *string `gorm:"type:uuid;index" json:"flow_item_id,omitempty"`

	// TokenHash stores the SHA-256 digest of the opaque invite secret. The
	// raw token is returned once at creation and never persisted.
	TokenHash string `gorm:"not null;uniqueIndex" json:"-"`

	Status       string    `gorm:"not null;default:pending;index" json:"status"`
	ExpiresAt    time.Time `gorm:"index" json:"expires_at"`
	SubmissionID *string   `gorm:"type:uuid;uniqueIndex" json:"submission_id,omitempty"`

	Candidate *Candidate `gorm:"constraint:OnDelete:CASCADE" json:"candidate,omitempty"`
	Test      *Test      `gorm:"constraint:OnDelete:SET NULL" json:"test,omitempty"`
}

// Expired reports whether the invite has passed its deadline at the given
// instant. Status never records expiry.
func (i *Invite) Expired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}
