package models

// Answer records a candidate's response to one question within one
// submission. At most one answer per question per submission.
type Answer struct {
	BaseModel

	SubmissionID string   `gorm:"type:uuid;not null;index:idx_answer_submission_question,unique" json:"submission_id"`
	QuestionID   string   `gorm:"type:uuid;not null;index:idx_answer_submission_question,unique" json:"question_id"`
	ValueText    *string  `json:"value_text,omitempty"`
	ValueNumber  *float64 `json:"value_number,omitempty"`
}
