package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/assets-service/internal/storage"
	"github.com/princekumarofficial/assets-service/internal/types/video"
)

// Cache key patterns
const (
	VideoKey = "video:%s" // video:videoID
)

// DefaultVideoCacheDuration applies when NewCacheService gets a zero ttl.
const DefaultVideoCacheDuration = 10 * time.Minute

// CacheService wraps storage with a Redis read-through cache of video
// records. Writes go to storage first and then drop the cached copy.
type CacheService struct {
	storage storage.Storage
	redis   *redis.Client
	ttl     time.Duration
}

var _ storage.Storage = (*CacheService)(nil)

// NewCacheService creates a new cache service
func NewCacheService(storage storage.Storage, redisClient *redis.Client, ttl time.Duration) *CacheService {
	if ttl <= 0 {
		ttl = DefaultVideoCacheDuration
	}
	return &CacheService{
		storage: storage,
		redis:   redisClient,
		ttl:     ttl,
	}
}

// GetVideo returns the cached record or fetches it from storage. Cache
// errors fall through to storage; a missing video is not cached.
func (c *CacheService) GetVideo(ctx context.Context, id string) (*video.Video, error) {
	key := fmt.Sprintf(VideoKey, id)

	// Try cache first
	cached, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var v video.Video
		if err := json.Unmarshal(cached, &v); err == nil {
			return &v, nil
		}
	} else if err != redis.Nil {
		slog.Warn("video cache read failed", slog.String("video_id", id), slog.String("error", err.Error()))
	}

	// Cache miss - fetch from database
	v, err := c.storage.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(v)
	if err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			slog.Warn("video cache write failed", slog.String("video_id", id), slog.String("error", err.Error()))
		}
	}

	return v, nil
}

// UpdateVideo writes u through to storage and invalidates the cache entry.
// Only the URLs in u are written, so a stale cached copy never flows back
// into storage.
func (c *CacheService) UpdateVideo(ctx context.Context, id string, u storage.AssetURLs) (*video.Video, error) {
	v, err := c.storage.UpdateVideo(ctx, id, u)
	if err != nil {
		return nil, err
	}
	c.Invalidate(ctx, id)
	return v, nil
}

func (c *CacheService) CreateVideo(ctx context.Context, v *video.Video) error {
	return c.storage.CreateVideo(ctx, v)
}

// Invalidate drops the cached record for id.
func (c *CacheService) Invalidate(ctx context.Context, id string) {
	if err := c.redis.Del(ctx, fmt.Sprintf(VideoKey, id)).Err(); err != nil {
		slog.Warn("video cache invalidation failed", slog.String("video_id", id), slog.String("error", err.Error()))
	}
}

// Ping checks storage and Redis.
func (c *CacheService) Ping(ctx context.Context) error {
	if err := c.storage.Ping(ctx); err != nil {
		return err
	}
	return c.redis.Ping(ctx).Err()
}

func (c *CacheService) Close() error {
	return c.storage.Close()
}
