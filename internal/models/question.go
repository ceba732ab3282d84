package models

import "gorm.io/datatypes"

// Question kinds.
const (
	QuestionKindYesNo    = "yes_no"
	QuestionKindScale    = "scale"
	QuestionKindChoice   = "choice"
	QuestionKindLongText = "long_text"
)

// Question belongs to one test. Scale questions may carry bounds, a
// dimension code grouping them for scoring and a reversed flag that flips
// the answered value around the scale midpoint.
type Question struct {
	BaseModel

	TestID        string         `gorm:"type:uuid;not null;index" json:"test_id"`
	Label         string         `gorm:"not null" json:"label"`
	Kind          string         `gorm:"not null" json:"kind"`
	MinValue      *float64       `json:"min_value,omitempty"`
	MaxValue      *float64       `json:"max_value,omitempty"`
	Options       datatypes.JSON `json:"options,omitempty"`
	IsRequired    bool           `gorm:"not null;default:false" json:"is_required"`
	DimensionCode string         `gorm:"index" json:"dimension_code,omitempty"`
	IsReversed    bool           `gorm:"not null;default:false" json:"is_reversed"`
	IsActive      bool           `gorm:"not null;default:true" json:"is_active"`
}
