package thumbnails

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// setupTestRedis creates an in-memory Redis server for testing
func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
		DB:   0,
	})

	cleanup := func() {
		redisClient.Close()
		mr.Close()
	}

	return redisClient, cleanup
}

func forEachStore(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
	t.Run("redis", func(t *testing.T) {
		client, cleanup := setupTestRedis(t)
		defer cleanup()
		fn(t, NewRedisStore(client))
	})
}

func TestStore_GetMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		_, err := store.Get(context.Background(), "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestStore_PutGet(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		data := bytes.Repeat([]byte{0x89, 'P', 'N', 'G'}, 512)

		if err := store.Put(ctx, "video-1", Thumbnail{Data: data, MediaType: "image/png"}); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		got, err := store.Get(ctx, "video-1")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !bytes.Equal(got.Data, data) {
			t.Fatalf("Expected %d bytes back, got %d", len(data), len(got.Data))
		}
		if got.MediaType != "image/png" {
			t.Fatalf("Expected image/png, got %q", got.MediaType)
		}
	})
}

func TestStore_PutOverwrites(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		store.Put(ctx, "video-1", Thumbnail{Data: []byte("first-longer-payload"), MediaType: "image/png"})
		store.Put(ctx, "video-1", Thumbnail{Data: []byte("second"), MediaType: "image/jpeg"})

		got, err := store.Get(ctx, "video-1")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if string(got.Data) != "second" || got.MediaType != "image/jpeg" {
			t.Fatalf("Expected second thumbnail, got %q %q", got.Data, got.MediaType)
		}
	})
}

func TestStore_Delete(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		store.Put(ctx, "video-1", Thumbnail{Data: []byte("x"), MediaType: "image/png"})
		if err := store.Delete(ctx, "video-1"); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if _, err := store.Get(ctx, "video-1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestMemoryStore_PutCopiesData(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("original")
	store.Put(ctx, "video-1", Thumbnail{Data: data, MediaType: "image/png"})
	copy(data, "mutated!")

	got, _ := store.Get(ctx, "video-1")
	if string(got.Data) != "original" {
		t.Fatalf("Expected stored bytes to be isolated from caller, got %q", got.Data)
	}
}

func TestMemoryStore_ConcurrentPutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	payloads := []Thumbnail{
		{Data: bytes.Repeat([]byte{'a'}, 4096), MediaType: "image/png"},
		{Data: bytes.Repeat([]byte{'b'}, 1024), MediaType: "image/jpeg"},
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				store.Put(ctx, "shared", payloads[(i+j)%2])
				store.Put(ctx, fmt.Sprintf("own-%d", i), payloads[i%2])
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				got, err := store.Get(ctx, "shared")
				if err != nil {
					continue
				}
				want := payloads[0]
				if got.MediaType == payloads[1].MediaType {
					want = payloads[1]
				}
				if !bytes.Equal(got.Data, want.Data) {
					t.Errorf("torn read: media type %s with %d bytes", got.MediaType, len(got.Data))
					return
				}
			}
		}()
	}
	wg.Wait()

	if store.Len() != 9 {
		t.Fatalf("Expected 9 entries, got %d", store.Len())
	}
}
