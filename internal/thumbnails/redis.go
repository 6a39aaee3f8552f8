package thumbnails

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// ThumbnailKey is the hash holding one video's thumbnail: thumbnail:videoID
const ThumbnailKey = "thumbnail:%s"

const (
	fieldData      = "data"
	fieldMediaType = "media_type"
)

// RedisStore keeps thumbnails in Redis so they survive restarts and are
// shared between replicas.
type RedisStore struct {
	redis *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed thumbnail store
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{redis: redisClient}
}

// Put writes both fields with a single HSET, which Redis applies atomically.
func (s *RedisStore) Put(ctx context.Context, videoID string, thumbnail Thumbnail) error {
	key := fmt.Sprintf(ThumbnailKey, videoID)

	err := s.redis.HSet(ctx, key,
		fieldData, thumbnail.Data,
		fieldMediaType, thumbnail.MediaType,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to store thumbnail: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, videoID string) (Thumbnail, error) {
	key := fmt.Sprintf(ThumbnailKey, videoID)

	fields, err := s.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return Thumbnail{}, fmt.Errorf("failed to load thumbnail: %w", err)
	}

	data, ok := fields[fieldData]
	if !ok {
		return Thumbnail{}, ErrNotFound
	}

	return Thumbnail{
		Data:      []byte(data),
		MediaType: fields[fieldMediaType],
	}, nil
}

func (s *RedisStore) Delete(ctx context.Context, videoID string) error {
	key := fmt.Sprintf(ThumbnailKey, videoID)
	return s.redis.Del(ctx, key).Err()
}
