package models

// Profile is the display snippet of a user, read from the backing profile
// store for read-receipt and call enrichment.
type Profile struct {
	UserID      string `db:"user_id" json:"user_id"`
	DisplayName string `db:"display_name" json:"display_name"`
	AvatarURL   string `db:"avatar_url" json:"avatar_url,omitempty"`
}
