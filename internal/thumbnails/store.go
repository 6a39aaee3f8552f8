// Package thumbnails stores the current thumbnail of each video, keyed by
// video id.
package thumbnails

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no thumbnail has been stored for a video.
var ErrNotFound = errors.New("thumbnail not found")

// Thumbnail is the raw image and the media type it was uploaded with.
type Thumbnail struct {
	Data      []byte
	MediaType string
}

// Store holds at most one thumbnail per video id. Put replaces the whole
// entry; a concurrent Get sees either the previous or the new entry.
type Store interface {
	Put(ctx context.Context, videoID string, thumbnail Thumbnail) error
	Get(ctx context.Context, videoID string) (Thumbnail, error)
	Delete(ctx context.Context, videoID string) error
}
