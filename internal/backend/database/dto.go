package database

// DetailRecord is one annotated detail photo of a persisted session. ImageURL
// is empty when the entry carried a note without an image.
type DetailRecord struct {
	ImageURL string `json:"imageUrl"`
	Note     string `json:"note"`
}

// SessionRecord is the persisted metadata of one intake submission.
// Records are append-only; there is no update or delete.
type SessionRecord struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Date           string         `json:"date"`
	TrackingNumber string         `json:"trackingNumber"`
	Image1URL      string         `json:"image1Url"`
	Image2URL      string         `json:"image2Url"`
	Details        []DetailRecord `json:"details"`
	CreatedAt      string         `json:"createdAt"`
}
