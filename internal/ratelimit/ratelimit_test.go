package ratelimit

import (
	"context"
	"testing"
	"time"

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

	// Test connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Failed to connect to test Redis: %v", err)
	}

	cleanup := func() {
		redisClient.Close()
		mr.Close()
	}

	return redisClient, cleanup
}

func TestTokenBucket_Take(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	// Create token bucket with 5 tokens, refill 5 per minute
	bucket := NewTokenBucket(redisClient, 5, 5)

	ctx := context.Background()
	userID := "203.0.113.7"
	action := "uploads"

	// Test that we can consume tokens up to the limit
	for i := 0; i < 5; i++ {
		res, err := bucket.Take(ctx, userID, action)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}

	// Test that the 6th request is denied
	res, err := bucket.Take(ctx, userID, action)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Allowed {
		t.Fatal("Expected request to be denied after limit reached")
	}

	// Test remaining tokens
	remaining, err := bucket.GetRemaining(ctx, userID, action)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("Expected 0 remaining tokens, got %d", remaining)
	}
}

func TestTokenBucket_GetRemaining(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	bucket := NewTokenBucket(redisClient, 10, 10)

	ctx := context.Background()
	userID := "203.0.113.8"
	action := "uploads"

	// Initially should have full capacity
	remaining, err := bucket.GetRemaining(ctx, userID, action)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if remaining != 10 {
		t.Fatalf("Expected 10 remaining tokens, got %d", remaining)
	}

	// Consume 3 tokens
	for i := 0; i < 3; i++ {
		bucket.Take(ctx, userID, action)
	}

	// Should have 7 remaining
	remaining, err = bucket.GetRemaining(ctx, userID, action)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if remaining != 7 {
		t.Fatalf("Expected 7 remaining tokens, got %d", remaining)
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	bucket := NewTokenBucket(redisClient, 2, 60)
	clock := time.Unix(1700000000, 0)
	bucket.now = func() time.Time { return clock }

	ctx := context.Background()
	subject := "198.51.100.1"

	for i := 0; i < 2; i++ {
		res, err := bucket.Take(ctx, subject, "uploads")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}

	res, err := bucket.Take(ctx, subject, "uploads")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Allowed || res.Remaining != 0 || res.Limit != 2 {
		t.Fatalf("Expected denial with 0 of 2 remaining, got %+v", res)
	}

	// 60 per minute is one token per second.
	clock = clock.Add(1500 * time.Millisecond)
	res, err = bucket.Take(ctx, subject, "uploads")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !res.Allowed {
		t.Fatal("Expected request to be allowed after refill")
	}

	// The half second left over still counts toward the next token.
	clock = clock.Add(500 * time.Millisecond)
	res, err = bucket.Take(ctx, subject, "uploads")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !res.Allowed {
		t.Fatal("Expected carried refill progress to grant a token")
	}
}

func TestTokenBucket_SubjectsAreIsolated(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	bucket := NewTokenBucket(redisClient, 1, 1)
	ctx := context.Background()

	if res, _ := bucket.Take(ctx, "a", "uploads"); !res.Allowed {
		t.Fatal("Expected first subject to be allowed")
	}
	if res, _ := bucket.Take(ctx, "a", "uploads"); res.Allowed {
		t.Fatal("Expected first subject to be limited")
	}
	if res, _ := bucket.Take(ctx, "b", "uploads"); !res.Allowed {
		t.Fatal("Expected second subject to be unaffected")
	}
}
