package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission is one candidate's attempt at one test: a frozen question order
// plus eventual answers and score. A submission belongs to exactly one
// candidate and at most one flow item; the unique index on
// (candidate_id, flow_item_id) closes the concurrent-start race.
type Submission struct {
	BaseModel

	TestID      string  `gorm:"type:uuid;not null;index" json:"test_id"`
	CandidateID string  `gorm:"type:uuid;not null;index:idx_submission_candidate_flow_item,unique" json:"candidate_id"`
	FlowID      *string `gorm:"type:uuid;index" json:"flow_id,omitempty"`
	FlowItemID  *string `gorm:"type:uuid;index:idx_submission_candidate_flow_item,unique" json:"flow_item_id,omitempty"`

	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	NumericScore  *float64       `json:"numeric_score,omitempty"`
	MaxScore      *float64       `json:"max_score,omitempty"`
	ScoringResult datatypes.JSON `json:"scoring_result,omitempty"`

	Items   []SubmissionItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Answers []Answer         `gorm:"constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

// Completed reports whether answers have been accepted for this submission.
func (s *Submission) Completed() bool {
	return s.CompletedAt != nil
}
