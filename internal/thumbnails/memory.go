package thumbnails

import (
	"context"
	"sync"
)

// MemoryStore keeps thumbnails in process memory. Entries live until the
// process exits; nothing is persisted or evicted.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Thumbnail
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Thumbnail)}
}

// Put copies data before storing it, so later writes to the caller's slice
// never reach readers.
func (s *MemoryStore) Put(_ context.Context, videoID string, thumbnail Thumbnail) error {
	entry := Thumbnail{
		Data:      append([]byte(nil), thumbnail.Data...),
		MediaType: thumbnail.MediaType,
	}

	s.mu.Lock()
	s.entries[videoID] = entry
	s.mu.Unlock()
	return nil
}

// Get returns the stored entry. The returned slice is shared and must not be
// modified.
func (s *MemoryStore) Get(_ context.Context, videoID string) (Thumbnail, error) {
	s.mu.RLock()
	entry, ok := s.entries[videoID]
	s.mu.RUnlock()
	if !ok {
		return Thumbnail{}, ErrNotFound
	}
	return entry, nil
}

func (s *MemoryStore) Delete(_ context.Context, videoID string) error {
	s.mu.Lock()
	delete(s.entries, videoID)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored thumbnails.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
