package assets

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error the ingestion pipeline returns wraps exactly one
// of these; callers switch on them with errors.Is.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrStorageFailure  = errors.New("storage failure")
)

var (
	ErrInvalidVideoID       = fmt.Errorf("%w: invalid video id", ErrBadRequest)
	ErrMissingFile          = fmt.Errorf("%w: file missing", ErrBadRequest)
	ErrEmptyFile            = fmt.Errorf("%w: file is empty", ErrBadRequest)
	ErrUnsupportedMediaType = fmt.Errorf("%w: unsupported media type", ErrBadRequest)
	ErrVideoNotFound        = fmt.Errorf("%w: couldn't find video", ErrNotFound)
	ErrThumbnailNotFound    = fmt.Errorf("%w: thumbnail not found", ErrNotFound)
	ErrNotOwner             = fmt.Errorf("%w: not the uploader of this video", ErrForbidden)
)
