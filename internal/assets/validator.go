package assets

import (
	"fmt"
	"mime"
	"slices"
	"strings"
)

// Class selects the validation policy for an upload.
type Class string

const (
	ClassThumbnail Class = "thumbnail"
	ClassVideo     Class = "video"
)

const defaultMediaType = "application/octet-stream"

// Policy bounds one asset class. An empty AllowedTypes accepts any declared
// media type.
type Policy struct {
	MaxBytes     int64
	AllowedTypes []string
}

// Validator enforces the per-class size ceiling and media-type allow-list.
type Validator struct {
	policies map[Class]Policy
}

func NewValidator(thumbnail, video Policy) *Validator {
	return &Validator{
		policies: map[Class]Policy{
			ClassThumbnail: normalizePolicy(thumbnail),
			ClassVideo:     normalizePolicy(video),
		},
	}
}

func normalizePolicy(p Policy) Policy {
	allowed := make([]string, 0, len(p.AllowedTypes))
	for _, t := range p.AllowedTypes {
		if strings.TrimSpace(t) != "" {
			allowed = append(allowed, NormalizeMediaType(t))
		}
	}
	return Policy{MaxBytes: p.MaxBytes, AllowedTypes: allowed}
}

// Limit returns the byte ceiling for class, or 0 for an unknown class.
func (v *Validator) Limit(class Class) int64 {
	return v.policies[class].MaxBytes
}

// Validate checks an upload that has already been fully read. mediaType must
// be normalized.
func (v *Validator) Validate(class Class, size int64, mediaType string) error {
	policy, ok := v.policies[class]
	if !ok {
		return fmt.Errorf("%w: unknown asset class %q", ErrBadRequest, class)
	}

	if size <= 0 {
		return ErrEmptyFile
	}
	if size > policy.MaxBytes {
		return fmt.Errorf("%w: %s exceeds the maximum allowed size of %d bytes", ErrPayloadTooLarge, class, policy.MaxBytes)
	}

	return v.CheckMediaType(class, mediaType)
}

// CheckMediaType checks a normalized media type against the class allow-list.
// It needs no payload, so callers can run it before reading the body.
func (v *Validator) CheckMediaType(class Class, mediaType string) error {
	policy, ok := v.policies[class]
	if !ok {
		return fmt.Errorf("%w: unknown asset class %q", ErrBadRequest, class)
	}

	if len(policy.AllowedTypes) > 0 && !slices.Contains(policy.AllowedTypes, mediaType) {
		return fmt.Errorf("%w: %q is not allowed for %s uploads (allowed: %s)",
			ErrUnsupportedMediaType, mediaType, class, strings.Join(policy.AllowedTypes, ", "))
	}

	return nil
}

// NormalizeMediaType lower-cases the declared type and drops parameters.
// Anything empty or unparseable becomes application/octet-stream.
func NormalizeMediaType(declared string) string {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return defaultMediaType
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return defaultMediaType
	}
	return mediaType
}
