package events

import (
	"context"
	"errors"
	"log/slog"

	"github.com/princekumarofficial/assets-service/internal/types"
)

// Publisher announces committed uploads. Publishing happens after the
// metadata record is saved; a failure here never undoes the upload.
type Publisher interface {
	PublishThumbnailUploaded(ctx context.Context, e *types.ThumbnailUploadedEvent) error
	PublishVideoUploaded(ctx context.Context, e *types.VideoUploadedEvent) error
}

// WebSocketHub is the part of the websocket hub the publisher needs.
type WebSocketHub interface {
	SendToUser(userID string, event *types.Event)
	IsUserConnected(userID string) bool
}

// HubPublisher notifies the owner over their live websocket connections.
type HubPublisher struct {
	hub WebSocketHub
}

func NewHubPublisher(hub WebSocketHub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) PublishThumbnailUploaded(_ context.Context, e *types.ThumbnailUploadedEvent) error {
	p.send(e.UserID, types.NewEvent(types.EventThumbnailUploaded, e))
	return nil
}

func (p *HubPublisher) PublishVideoUploaded(_ context.Context, e *types.VideoUploadedEvent) error {
	p.send(e.UserID, types.NewEvent(types.EventVideoUploaded, e))
	return nil
}

func (p *HubPublisher) send(userID string, event *types.Event) {
	// Only send if the owner is connected
	if !p.hub.IsUserConnected(userID) {
		return
	}
	p.hub.SendToUser(userID, event)
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) PublishThumbnailUploaded(ctx context.Context, e *types.ThumbnailUploadedEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishThumbnailUploaded(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) PublishVideoUploaded(ctx context.Context, e *types.VideoUploadedEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishVideoUploaded(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishThumbnailUploaded(context.Context, *types.ThumbnailUploadedEvent) error {
	return nil
}

func (Nop) PublishVideoUploaded(context.Context, *types.VideoUploadedEvent) error { return nil }

// Logged wraps p so failures are logged instead of returned.
func Logged(p Publisher) Publisher {
	return logged{next: p}
}

type logged struct {
	next Publisher
}

func (l logged) PublishThumbnailUploaded(ctx context.Context, e *types.ThumbnailUploadedEvent) error {
	if err := l.next.PublishThumbnailUploaded(ctx, e); err != nil {
		slog.Warn("failed to publish thumbnail event",
			slog.String("video_id", e.VideoID), slog.String("error", err.Error()))
	}
	return nil
}

func (l logged) PublishVideoUploaded(ctx context.Context, e *types.VideoUploadedEvent) error {
	if err := l.next.PublishVideoUploaded(ctx, e); err != nil {
		slog.Warn("failed to publish video event",
			slog.String("video_id", e.VideoID), slog.String("error", err.Error()))
	}
	return nil
}
