package models

// Candidate pipeline stages relevant to the assessment core. The status
// column is free-form for the rest of the pipeline; submitting answers always
// moves a candidate to CandidateStatusAssessmentSubmitted.
const (
	CandidateStatusNew                 = "new"
	CandidateStatusAssessmentSent      = "assessment_sent"
	CandidateStatusAssessmentSubmitted = "assessment_submitted"
)

// Candidate is an applicant progressing through an offer's pipeline.
type Candidate struct {
	BaseModel

	OrgID   string  `gorm:"type:uuid;not null;index" json:"org_id"`
	Name    string  `gorm:"not null" json:"name"`
	Email   string  `gorm:"not null;index" json:"email"`
	Status  string  `gorm:"not null;default:new" json:"status"`
	OfferID *string `gorm:"type:uuid;index" json:"offer_id,omitempty"`

	Offer *Offer `gorm:"constraint:OnDelete:SET NULL" json:"offer,omitempty"`
}
