package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventThumbnailUploaded EventType = "asset.thumbnail_uploaded"
	EventVideoUploaded     EventType = "asset.video_uploaded"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// ThumbnailUploadedEvent is sent to the owner after a thumbnail is stored
type ThumbnailUploadedEvent struct {
	VideoID      string `json:"video_id"`
	UserID       string `json:"user_id"`
	ThumbnailURL string `json:"thumbnail_url"`
	MediaType    string `json:"media_type"`
	Size         int64  `json:"size"`
	UploadedAt   string `json:"uploaded_at"`
}

// VideoUploadedEvent is sent to the owner and to the processing queue after
// a video object is written
type VideoUploadedEvent struct {
	VideoID    string `json:"video_id"`
	UserID     string `json:"user_id"`
	ObjectKey  string `json:"object_key"`
	VideoURL   string `json:"video_url"`
	MediaType  string `json:"media_type"`
	Size       int64  `json:"size"`
	UploadedAt string `json:"uploaded_at"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
