package media

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/princekumarofficial/assets-service/internal/assets"
	"github.com/princekumarofficial/assets-service/internal/logger"
	mediaService "github.com/princekumarofficial/assets-service/internal/services/media"
	"github.com/princekumarofficial/assets-service/internal/utils/response"
)

// multipartOverhead is the room left in the request body cap for multipart
// boundaries and part headers.
const multipartOverhead = 1 << 20

type MediaHandlers struct {
	mediaService *mediaService.Service
	maxThumbnail int64
	maxVideo     int64
}

// NewMediaHandlers creates the asset handlers. The limits cap the whole
// request body; the service enforces the exact per-file ceiling.
func NewMediaHandlers(mediaService *mediaService.Service, maxThumbnail, maxVideo int64) *MediaHandlers {
	return &MediaHandlers{
		mediaService: mediaService,
		maxThumbnail: maxThumbnail,
		maxVideo:     maxVideo,
	}
}

// GetThumbnail serves the stored thumbnail bytes
// @Summary Get a video thumbnail
// @Description Returns the raw thumbnail image with the media type it was uploaded with. Public.
// @Tags assets
// @Produce octet-stream
// @Param videoID path string true "Video ID (UUID)"
// @Success 200 {file} binary "Thumbnail bytes"
// @Failure 400 {object} response.Response "Invalid video ID"
// @Failure 404 {object} response.Response "Video or thumbnail not found"
// @Router /assets/thumbnails/{videoID} [get]
func (h *MediaHandlers) GetThumbnail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		thumb, err := h.mediaService.GetThumbnail(r.Context(), r.PathValue("videoID"))
		if err != nil {
			response.Error(w, err)
			return
		}

		w.Header().Set("Content-Type", thumb.MediaType)
		w.Header().Set("Content-Length", strconv.Itoa(len(thumb.Data)))
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(thumb.Data); err != nil {
			logger.FromContext(r.Context()).Warn("failed to write thumbnail", slog.String("error", err.Error()))
		}
	}
}

// UploadThumbnail stores a new thumbnail for a video
// @Summary Upload a video thumbnail
// @Description Replaces the thumbnail of a video owned by the caller and returns the updated record.
// @Tags assets
// @Accept multipart/form-data
// @Produce json
// @Param videoID path string true "Video ID (UUID)"
// @Param thumbnail formData file true "Thumbnail image"
// @Success 200 {object} video.Video "Updated video record"
// @Failure 400 {object} response.Response "Invalid video ID, missing, empty or oversized file"
// @Failure 401 {object} response.Response "Missing or invalid credential"
// @Failure 403 {object} response.Response "Caller does not own the video"
// @Failure 404 {object} response.Response "Video not found"
// @Failure 429 {object} response.Response "Rate limit exceeded"
// @Failure 500 {object} response.Response "Storage failure"
// @Security BearerAuth
// @Router /assets/thumbnails/{videoID} [post]
func (h *MediaHandlers) UploadThumbnail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxThumbnail+multipartOverhead)

		v, err := h.mediaService.UploadThumbnail(r.Context(), r.PathValue("videoID"),
			r.Header.Get("Authorization"), &multipartSource{r: r})
		if err != nil {
			response.Error(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, v)
	}
}

// UploadVideo writes a video file to the object store
// @Summary Upload a video file
// @Description Streams the video to the object store under a fresh key and points the record at it.
// @Tags assets
// @Accept multipart/form-data
// @Produce json
// @Param videoID path string true "Video ID (UUID)"
// @Param video formData file true "Video file (video/mp4 or video/webm)"
// @Success 200 {object} object "Empty object"
// @Failure 400 {object} response.Response "Invalid video ID, missing, oversized file or disallowed media type"
// @Failure 401 {object} response.Response "Missing or invalid credential"
// @Failure 403 {object} response.Response "Caller does not own the video"
// @Failure 404 {object} response.Response "Video not found"
// @Failure 429 {object} response.Response "Rate limit exceeded"
// @Failure 500 {object} response.Response "Storage failure"
// @Security BearerAuth
// @Router /assets/videos/{videoID} [post]
func (h *MediaHandlers) UploadVideo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxVideo+multipartOverhead)

		_, err := h.mediaService.UploadVideo(r.Context(), r.PathValue("videoID"),
			r.Header.Get("Authorization"), &multipartSource{r: r})
		if err != nil {
			response.Error(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, struct{}{})
	}
}

// multipartSource streams the requested file part without parsing the
// whole form into memory.
type multipartSource struct {
	r *http.Request
}

func (s *multipartSource) File(field string) (io.ReadCloser, string, error) {
	mr, err := s.r.MultipartReader()
	if err != nil {
		return nil, "", fmt.Errorf("%w: couldn't parse multipart form: %v", assets.ErrBadRequest, err)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, "", fmt.Errorf("%w: no %q field", assets.ErrMissingFile, field)
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, "", fmt.Errorf("%w: request body exceeds %d bytes", assets.ErrPayloadTooLarge, maxErr.Limit)
			}
			return nil, "", fmt.Errorf("%w: couldn't read multipart form: %v", assets.ErrBadRequest, err)
		}

		if part.FormName() != field {
			part.Close()
			continue
		}
		if part.FileName() == "" {
			part.Close()
			return nil, "", fmt.Errorf("%w: field %q is not a file", assets.ErrBadRequest, field)
		}
		return part, part.Header.Get("Content-Type"), nil
	}
}
