package media

import (
	"context"
	"fmt"

	"github.com/princekumarofficial/assets-service/internal/assets"
	"github.com/princekumarofficial/assets-service/internal/storage"
	"github.com/princekumarofficial/assets-service/internal/types/video"
)

// Synchronizer records new asset URLs in the metadata store. It is called
// once per successful upload and never on a rejected one. Only the URL the
// upload produced is written; other fields stay as the store has them.
type Synchronizer struct {
	videos VideoStore
}

func NewSynchronizer(videos VideoStore) *Synchronizer {
	return &Synchronizer{videos: videos}
}

// Save writes u for videoID and returns the record as stored.
func (s *Synchronizer) Save(ctx context.Context, videoID string, u storage.AssetURLs) (*video.Video, error) {
	v, err := s.videos.UpdateVideo(ctx, videoID, u)
	if err != nil {
		return nil, fmt.Errorf("%w: save video %s: %w", assets.ErrStorageFailure, videoID, err)
	}
	return v, nil
}
