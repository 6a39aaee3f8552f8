package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testValidator() *Validator {
	return NewValidator(
		Policy{MaxBytes: 10 << 20},
		Policy{MaxBytes: 1 << 30, AllowedTypes: []string{"video/mp4", "video/webm"}},
	)
}

func TestValidateThumbnailIsPermissive(t *testing.T) {
	v := testValidator()

	for _, mediaType := range []string{"image/png", "image/jpeg", "application/octet-stream", "text/plain"} {
		assert.NoError(t, v.Validate(ClassThumbnail, 2048, mediaType), mediaType)
	}
}

func TestValidateSizeCeiling(t *testing.T) {
	v := testValidator()

	assert.NoError(t, v.Validate(ClassThumbnail, 10<<20, "image/png"))

	err := v.Validate(ClassThumbnail, 10<<20+1024, "image/png")
	assert.ErrorIs(t, err, ErrPayloadTooLarge)

	err = v.Validate(ClassVideo, 1<<30+1, "video/mp4")
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestValidateRejectsEmptyPayload(t *testing.T) {
	err := testValidator().Validate(ClassThumbnail, 0, "image/png")
	assert.ErrorIs(t, err, ErrEmptyFile)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestValidateVideoAllowList(t *testing.T) {
	v := testValidator()

	assert.NoError(t, v.Validate(ClassVideo, 4096, "video/mp4"))
	assert.NoError(t, v.Validate(ClassVideo, 4096, "video/webm"))

	for _, mediaType := range []string{"video/quicktime", "image/png", "application/octet-stream"} {
		err := v.Validate(ClassVideo, 4096, mediaType)
		assert.ErrorIs(t, err, ErrUnsupportedMediaType, mediaType)
		assert.ErrorIs(t, err, ErrBadRequest, mediaType)
	}
}

func TestCheckMediaType(t *testing.T) {
	v := testValidator()

	assert.NoError(t, v.CheckMediaType(ClassVideo, "video/webm"))
	assert.NoError(t, v.CheckMediaType(ClassThumbnail, "text/plain"))
	assert.ErrorIs(t, v.CheckMediaType(ClassVideo, "video/quicktime"), ErrUnsupportedMediaType)
	assert.ErrorIs(t, v.CheckMediaType(Class("audio"), "audio/mpeg"), ErrBadRequest)
}

func TestValidateUnknownClass(t *testing.T) {
	err := testValidator().Validate(Class("audio"), 10, "audio/mpeg")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestLimit(t *testing.T) {
	v := testValidator()
	assert.Equal(t, int64(10<<20), v.Limit(ClassThumbnail))
	assert.Equal(t, int64(1<<30), v.Limit(ClassVideo))
}

func TestNormalizeMediaType(t *testing.T) {
	tests := map[string]string{
		"image/png":                 "image/png",
		"Video/MP4":                 "video/mp4",
		"video/webm; codecs=vp9":    "video/webm",
		"  image/jpeg  ":            "image/jpeg",
		"":                          "application/octet-stream",
		"not a media type at all;;": "application/octet-stream",
	}

	for in, want := range tests {
		assert.Equal(t, want, NormalizeMediaType(in), in)
	}
}
