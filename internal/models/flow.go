package models

// Flow item kinds.
const (
	FlowItemKindVideo = "video"
	FlowItemKindTest  = "test"
)

// Flow is an ordered sequence of video/test items presented to a candidate
// for one offer.
type Flow struct {
	BaseModel

	OfferID  string `gorm:"type:uuid;not null;index" json:"offer_id"`
	Name     string `json:"name"`
	IsActive bool   `gorm:"not null;default:true;index" json:"is_active"`

	Items []FlowItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// FlowItem is one step of a flow. Test items reference a Test; video items
// carry a playback URL and never gate flow completion.
type FlowItem struct {
	BaseModel

	FlowID   string  `gorm:"type:uuid;not null;index" json:"flow_id"`
	Position int     `gorm:"not null" json:"position"`
	Kind     string  `gorm:"not null" json:"kind"`
	TestID   *string `gorm:"type:uuid;index" json:"test_id,omitempty"`
	VideoURL string  `json:"video_url,omitempty"`
}
