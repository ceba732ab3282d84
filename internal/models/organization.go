package models

// Organization is the tenancy anchor: every invite, test and candidate
// belongs to exactly one organization.
type Organization struct {
	BaseModel

	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"uniqueIndex" json:"slug"`
}
