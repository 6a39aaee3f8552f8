package storage

import (
	"context"
	"errors"

	"github.com/princekumarofficial/assets-service/internal/types/video"
)

// ErrVideoNotFound is returned when no record has the requested id.
var ErrVideoNotFound = errors.New("video not found")

// AssetURLs carries the asset URLs an upload changes. Nil fields keep their
// stored value.
type AssetURLs struct {
	ThumbnailURL *string
	VideoURL     *string
}

// Storage is the video metadata store. Records are created elsewhere; this
// service reads them and updates their asset URLs.
type Storage interface {
	CreateVideo(ctx context.Context, v *video.Video) error
	GetVideo(ctx context.Context, id string) (*video.Video, error)
	// UpdateVideo sets the non-nil URLs of u on record id, bumps updated_at
	// and returns the stored row. No other column is written.
	UpdateVideo(ctx context.Context, id string, u AssetURLs) (*video.Video, error)
	Ping(ctx context.Context) error
	Close() error
}
