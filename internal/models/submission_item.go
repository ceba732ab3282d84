package models

// SubmissionItem freezes the per-candidate question order for one
// submission. DisplayIndex is 1-based; rows are written once at seeding and
// reused verbatim on every later read.
type SubmissionItem struct {
	BaseModel

	SubmissionID string `gorm:"type:uuid;not null;index:idx_submission_item_question,unique" json:"submission_id"`
	QuestionID   string `gorm:"type:uuid;not null;index:idx_submission_item_question,unique" json:"question_id"`
	DisplayIndex int    `gorm:"not null" json:"display_index"`

	Question *Question `json:"question,omitempty"`
}
