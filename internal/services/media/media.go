// Package media runs the asset ingestion pipeline: authorize the caller,
// check ownership of the video record, validate and persist the payload,
// then point the record at the new asset.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/princekumarofficial/assets-service/internal/assets"
	"github.com/princekumarofficial/assets-service/internal/events"
	"github.com/princekumarofficial/assets-service/internal/metrics"
	"github.com/princekumarofficial/assets-service/internal/objectstore"
	"github.com/princekumarofficial/assets-service/internal/storage"
	"github.com/princekumarofficial/assets-service/internal/thumbnails"
	"github.com/princekumarofficial/assets-service/internal/types"
	"github.com/princekumarofficial/assets-service/internal/types/video"
)

// Form fields carrying the uploaded file.
const (
	ThumbnailField = "thumbnail"
	VideoField     = "video"
)

// Authenticator resolves an Authorization header to a user id.
type Authenticator interface {
	Authenticate(header string) (string, error)
}

// VideoStore is the part of the metadata store the pipeline reads and
// writes.
type VideoStore interface {
	GetVideo(ctx context.Context, id string) (*video.Video, error)
	UpdateVideo(ctx context.Context, id string, u storage.AssetURLs) (*video.Video, error)
}

// FileSource hands out the uploaded file for a form field. It is only
// consulted after the caller is authorized, so an unauthorized request never
// has its payload read.
type FileSource interface {
	File(field string) (body io.ReadCloser, mediaType string, err error)
}

// Recorder receives upload and read outcomes.
type Recorder interface {
	Upload(class, outcome string, size int64)
	ThumbnailRead(outcome string)
}

type Options struct {
	Auth       Authenticator
	Videos     VideoStore
	Thumbnails thumbnails.Store
	Objects    objectstore.Writer
	Validator  *assets.Validator
	// ThumbnailBaseURL is the prefix of every thumbnail access URL, e.g.
	// http://localhost:8091/assets/thumbnails.
	ThumbnailBaseURL string

	// Optional.
	Publisher events.Publisher
	Metrics   Recorder
	Logger    *slog.Logger
}

type Service struct {
	auth          Authenticator
	videos        VideoStore
	sync          *Synchronizer
	thumbnails    thumbnails.Store
	objects       objectstore.Writer
	validator     *assets.Validator
	thumbnailBase string
	publisher     events.Publisher
	metrics       Recorder
	log           *slog.Logger
}

func NewService(opts Options) *Service {
	s := &Service{
		auth:          opts.Auth,
		videos:        opts.Videos,
		sync:          NewSynchronizer(opts.Videos),
		thumbnails:    opts.Thumbnails,
		objects:       opts.Objects,
		validator:     opts.Validator,
		thumbnailBase: opts.ThumbnailBaseURL,
		publisher:     opts.Publisher,
		metrics:       opts.Metrics,
		log:           opts.Logger,
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With(slog.String("service", "media"))
	return s
}

// ThumbnailURL builds the access URL of the thumbnail for videoID.
func ThumbnailURL(base, videoID string) string {
	return strings.TrimRight(base, "/") + "/" + videoID
}

// UploadThumbnail stores the thumbnail in src for videoID and returns the
// updated record.
func (s *Service) UploadThumbnail(ctx context.Context, videoID, authHeader string, src FileSource) (*video.Video, error) {
	v, size, err := s.uploadThumbnail(ctx, videoID, authHeader, src)
	s.record(assets.ClassThumbnail, size, err)
	return v, err
}

func (s *Service) uploadThumbnail(ctx context.Context, videoID, authHeader string, src FileSource) (*video.Video, int64, error) {
	v, userID, err := s.authorize(ctx, videoID, authHeader)
	if err != nil {
		return nil, 0, err
	}

	payload, err := s.readPayload(src, ThumbnailField, assets.ClassThumbnail)
	if err != nil {
		return nil, 0, err
	}
	defer payload.Close()

	data, err := payload.Bytes()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read spooled thumbnail: %v", assets.ErrStorageFailure, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("thumbnail upload aborted: %w", err)
	}

	err = s.thumbnails.Put(ctx, v.ID, thumbnails.Thumbnail{Data: data, MediaType: payload.MediaType})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: store thumbnail: %v", assets.ErrStorageFailure, err)
	}

	url := ThumbnailURL(s.thumbnailBase, v.ID)

	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("thumbnail upload aborted: %w", err)
	}
	v, err = s.sync.Save(ctx, v.ID, storage.AssetURLs{ThumbnailURL: &url})
	if err != nil {
		return nil, 0, err
	}

	s.log.Info("thumbnail uploaded",
		slog.String("video_id", v.ID),
		slog.String("user_id", userID),
		slog.String("media_type", payload.MediaType),
		slog.Int64("size", payload.Size))

	_ = s.publisher.PublishThumbnailUploaded(ctx, &types.ThumbnailUploadedEvent{
		VideoID:      v.ID,
		UserID:       userID,
		ThumbnailURL: url,
		MediaType:    payload.MediaType,
		Size:         payload.Size,
		UploadedAt:   v.UpdatedAt.UTC().Format(time.RFC3339),
	})

	return v, payload.Size, nil
}

// GetThumbnail returns the stored thumbnail for videoID. It is a public read.
func (s *Service) GetThumbnail(ctx context.Context, videoID string) (thumbnails.Thumbnail, error) {
	id, err := parseVideoID(videoID)
	if err != nil {
		return thumbnails.Thumbnail{}, err
	}

	if _, err := s.fetch(ctx, id); err != nil {
		s.metrics.ThumbnailRead(metrics.OutcomeMiss)
		return thumbnails.Thumbnail{}, err
	}

	thumb, err := s.thumbnails.Get(ctx, id)
	if errors.Is(err, thumbnails.ErrNotFound) {
		s.metrics.ThumbnailRead(metrics.OutcomeMiss)
		return thumbnails.Thumbnail{}, assets.ErrThumbnailNotFound
	}
	if err != nil {
		s.metrics.ThumbnailRead(metrics.OutcomeFailed)
		return thumbnails.Thumbnail{}, fmt.Errorf("%w: read thumbnail: %v", assets.ErrStorageFailure, err)
	}

	s.metrics.ThumbnailRead(metrics.OutcomeHit)
	return thumb, nil
}

// UploadVideo writes the video in src to the object store under a fresh key
// and points the record at it. The record is only saved after the object
// write succeeded.
func (s *Service) UploadVideo(ctx context.Context, videoID, authHeader string, src FileSource) (*video.Video, error) {
	v, size, err := s.uploadVideo(ctx, videoID, authHeader, src)
	s.record(assets.ClassVideo, size, err)
	return v, err
}

func (s *Service) uploadVideo(ctx context.Context, videoID, authHeader string, src FileSource) (*video.Video, int64, error) {
	v, userID, err := s.authorize(ctx, videoID, authHeader)
	if err != nil {
		return nil, 0, err
	}

	payload, err := s.readPayload(src, VideoField, assets.ClassVideo)
	if err != nil {
		return nil, 0, err
	}
	defer payload.Close()

	key, err := assets.DeriveKey(payload.MediaType)
	if err != nil {
		if errors.Is(err, assets.ErrBadRequest) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("%w: derive object key: %v", assets.ErrStorageFailure, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("video upload aborted: %w", err)
	}

	body, err := payload.Open()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: open spooled video: %v", assets.ErrStorageFailure, err)
	}
	err = s.objects.Write(ctx, key, body, payload.Size, payload.MediaType)
	body.Close()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: write object %s: %v", assets.ErrStorageFailure, key, err)
	}

	url := s.objects.URL(key)

	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("video upload aborted after object write: %w", err)
	}
	v, err = s.sync.Save(ctx, v.ID, storage.AssetURLs{VideoURL: &url})
	if err != nil {
		return nil, 0, err
	}

	s.log.Info("video uploaded",
		slog.String("video_id", v.ID),
		slog.String("user_id", userID),
		slog.String("object_key", key),
		slog.String("media_type", payload.MediaType),
		slog.Int64("size", payload.Size))

	_ = s.publisher.PublishVideoUploaded(ctx, &types.VideoUploadedEvent{
		VideoID:    v.ID,
		UserID:     userID,
		ObjectKey:  key,
		VideoURL:   url,
		MediaType:  payload.MediaType,
		Size:       payload.Size,
		UploadedAt: v.UpdatedAt.UTC().Format(time.RFC3339),
	})

	return v, payload.Size, nil
}

// authorize runs the checks shared by both upload flows, in order: video id,
// credential, record lookup, ownership. Nothing here touches the payload.
func (s *Service) authorize(ctx context.Context, videoID, authHeader string) (*video.Video, string, error) {
	id, err := parseVideoID(videoID)
	if err != nil {
		return nil, "", err
	}

	userID, err := s.auth.Authenticate(authHeader)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", assets.ErrUnauthorized, err)
	}

	v, err := s.fetch(ctx, id)
	if err != nil {
		return nil, "", err
	}

	if !v.IsOwnedBy(userID) {
		s.log.Warn("upload by non-owner rejected",
			slog.String("video_id", id), slog.String("user_id", userID))
		return nil, "", assets.ErrNotOwner
	}

	return v, userID, nil
}

func (s *Service) fetch(ctx context.Context, id string) (*video.Video, error) {
	v, err := s.videos.GetVideo(ctx, id)
	if errors.Is(err, storage.ErrVideoNotFound) {
		return nil, assets.ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get video %s: %v", assets.ErrStorageFailure, id, err)
	}
	return v, nil
}

// readPayload pulls the file for field out of src, checks its declared type,
// spools it under the class ceiling and validates it. A disallowed type is
// rejected before any of the body is read.
func (s *Service) readPayload(src FileSource, field string, class assets.Class) (*assets.Payload, error) {
	if src == nil {
		return nil, assets.ErrMissingFile
	}

	body, declared, err := src.File(field)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	if err := s.validator.CheckMediaType(class, assets.NormalizeMediaType(declared)); err != nil {
		return nil, err
	}

	payload, err := assets.Spool(body, declared, s.validator.Limit(class))
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(class, payload.Size, payload.MediaType); err != nil {
		payload.Close()
		return nil, err
	}
	return payload, nil
}

func (s *Service) record(class assets.Class, size int64, err error) {
	switch {
	case err == nil:
		s.metrics.Upload(string(class), metrics.OutcomeSuccess, size)
	case errors.Is(err, assets.ErrStorageFailure), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.metrics.Upload(string(class), metrics.OutcomeFailed, 0)
		s.log.Error("upload failed", slog.String("class", string(class)), slog.String("error", err.Error()))
	default:
		s.metrics.Upload(string(class), metrics.OutcomeRejected, 0)
		s.log.Debug("upload rejected", slog.String("class", string(class)), slog.String("error", err.Error()))
	}
}

func parseVideoID(videoID string) (string, error) {
	if strings.TrimSpace(videoID) == "" {
		return "", assets.ErrInvalidVideoID
	}
	id, err := uuid.Parse(videoID)
	if err != nil {
		return "", assets.ErrInvalidVideoID
	}
	return id.String(), nil
}

type nopRecorder struct{}

func (nopRecorder) Upload(string, string, int64) {}
func (nopRecorder) ThumbnailRead(string)         {}
