package models

// Offer is a job opening owned by one organization. At most one active Flow
// hangs off an offer at any time.
type Offer struct {
	BaseModel

	OrgID string `gorm:"type:uuid;not null;index" json:"org_id"`
	Title string `gorm:"not null" json:"title"`
}
