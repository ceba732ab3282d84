package models

// Test types supported by the scoring engine. Only motivations tests are
// scored; scenario tests collect answers without a numeric result.
const (
	TestTypeMotivations = "motivations"
	TestTypeScenario    = "scenario"
)

// Test is an assessment definition owned by one organization. Tests can be
// referenced across organizations through the shared catalog.
type Test struct {
	BaseModel

	OrgID    string `gorm:"type:uuid;not null;index" json:"org_id"`
	Name     string `gorm:"not null" json:"name"`
	Type     string `gorm:"not null;index" json:"type"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`

	Questions []Question `gorm:"constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}
