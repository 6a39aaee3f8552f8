package cache

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/assets-service/internal/storage"
	"github.com/princekumarofficial/assets-service/internal/storage/sqlite"
	"github.com/princekumarofficial/assets-service/internal/types/video"
)

// setupTestRedis creates an in-memory Redis server for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		redisClient.Close()
		mr.Close()
	})
	return redisClient, mr
}

type countingStorage struct {
	storage.Storage
	gets int
}

func (c *countingStorage) GetVideo(ctx context.Context, id string) (*video.Video, error) {
	c.gets++
	return c.Storage.GetVideo(ctx, id)
}

func setupCache(t *testing.T) (*CacheService, *countingStorage, *miniredis.Miniredis) {
	t.Helper()
	redisClient, mr := setupTestRedis(t)

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	counting := &countingStorage{Storage: db}
	return NewCacheService(counting, redisClient, time.Minute), counting, mr
}

func TestGetVideoReadsThrough(t *testing.T) {
	c, db, mr := setupCache(t)
	ctx := context.Background()

	if err := c.CreateVideo(ctx, &video.Video{ID: "v1", UserID: "owner"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetVideo(ctx, "v1")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if v.UserID != "owner" {
			t.Fatalf("Expected owner, got %q", v.UserID)
		}
	}

	if db.gets != 1 {
		t.Fatalf("Expected 1 storage read, got %d", db.gets)
	}
	if !mr.Exists(fmt.Sprintf(VideoKey, "v1")) {
		t.Fatal("Expected record to be cached")
	}
	if ttl := mr.TTL(fmt.Sprintf(VideoKey, "v1")); ttl != time.Minute {
		t.Fatalf("Expected 1m ttl, got %v", ttl)
	}
}

func TestUpdateVideoInvalidates(t *testing.T) {
	c, db, _ := setupCache(t)
	ctx := context.Background()

	if err := c.CreateVideo(ctx, &video.Video{ID: "v1", UserID: "owner"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	v, err := c.GetVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	url := "https://bucket.s3.us-east-1.amazonaws.com/abc.mp4"
	if _, err := c.UpdateVideo(ctx, v.ID, storage.AssetURLs{VideoURL: &url}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got, err := c.GetVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.VideoURL == nil || *got.VideoURL != url {
		t.Fatalf("Expected updated video url, got %v", got.VideoURL)
	}
	if db.gets != 2 {
		t.Fatalf("Expected a fresh storage read after update, got %d reads", db.gets)
	}
}

func TestMissingVideoIsNotCached(t *testing.T) {
	c, _, mr := setupCache(t)

	_, err := c.GetVideo(context.Background(), "nope")
	if err != storage.ErrVideoNotFound {
		t.Fatalf("Expected ErrVideoNotFound, got %v", err)
	}
	if mr.Exists(fmt.Sprintf(VideoKey, "nope")) {
		t.Fatal("Expected no cache entry for a missing video")
	}
}

func TestRedisOutageFallsThrough(t *testing.T) {
	c, db, mr := setupCache(t)
	ctx := context.Background()

	if err := c.CreateVideo(ctx, &video.Video{ID: "v1", UserID: "owner"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	mr.Close()

	v, err := c.GetVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("Expected storage fallback, got %v", err)
	}
	if v.UserID != "owner" || db.gets != 1 {
		t.Fatalf("Unexpected result %+v after %d reads", v, db.gets)
	}
}

func TestUpdateVideoKeepsFieldsChangedBehindCache(t *testing.T) {
	redisClient, _ := setupTestRedis(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "assets.db")
	db, err := sqlite.New(path)
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	c := NewCacheService(db, redisClient, time.Minute)

	if err := c.CreateVideo(ctx, &video.Video{ID: "v1", UserID: "owner", Title: "original"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := c.GetVideo(ctx, "v1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// The metadata owner edits the row directly while the cached copy is live.
	external, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	defer external.Close()
	videoURL := "https://bucket.s3.us-east-1.amazonaws.com/current.mp4"
	if _, err := external.ExecContext(ctx,
		`UPDATE videos SET title = ?, video_url = ? WHERE id = ?`, "renamed externally", videoURL, "v1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	cached, err := c.GetVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cached.Title != "original" {
		t.Fatalf("Expected the stale cached copy, got title %q", cached.Title)
	}

	thumbURL := "http://localhost:8091/assets/thumbnails/v1"
	updated, err := c.UpdateVideo(ctx, cached.ID, storage.AssetURLs{ThumbnailURL: &thumbURL})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got, err := c.GetVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, v := range []*video.Video{updated, got} {
		if v.Title != "renamed externally" {
			t.Fatalf("Expected external title to survive, got %q", v.Title)
		}
		if v.VideoURL == nil || *v.VideoURL != videoURL {
			t.Fatalf("Expected video url %q to survive, got %v", videoURL, v.VideoURL)
		}
		if v.ThumbnailURL == nil || *v.ThumbnailURL != thumbURL {
			t.Fatalf("Expected thumbnail url %q, got %v", thumbURL, v.ThumbnailURL)
		}
	}
}
