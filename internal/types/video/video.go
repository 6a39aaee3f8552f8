package video

import "time"

// Video is the metadata record an uploaded asset is attached to.
// UserID is fixed at creation; only its owner may change ThumbnailURL or
// VideoURL.
type Video struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	ThumbnailURL *string   `json:"thumbnail_url" db:"thumbnail_url"`
	VideoURL     *string   `json:"video_url" db:"video_url"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsOwnedBy reports whether userID owns the record.
func (v *Video) IsOwnedBy(userID string) bool {
	return v != nil && userID != "" && v.UserID == userID
}
