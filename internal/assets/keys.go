package assets

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// KeyEntropyBytes is the width of the random part of an object key.
const KeyEntropyBytes = 32

var extensions = map[string]string{
	"image/jpeg":       ".jpg",
	"image/png":        ".png",
	"image/gif":        ".gif",
	"image/webp":       ".webp",
	"video/mp4":        ".mp4",
	"video/webm":       ".webm",
	"video/quicktime":  ".mov",
	"video/x-matroska": ".mkv",
}

// ExtensionFor maps a normalized media type onto a filename extension.
func ExtensionFor(mediaType string) (string, bool) {
	ext, ok := extensions[mediaType]
	return ext, ok
}

// DeriveKey returns a new object key: 32 random bytes, hex encoded, followed
// by the extension for mediaType.
func DeriveKey(mediaType string) (string, error) {
	return deriveKey(rand.Reader, mediaType)
}

func deriveKey(random io.Reader, mediaType string) (string, error) {
	ext, ok := ExtensionFor(mediaType)
	if !ok {
		return "", fmt.Errorf("%w: no extension for %q", ErrUnsupportedMediaType, mediaType)
	}

	buf := make([]byte, KeyEntropyBytes)
	if _, err := io.ReadFull(random, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	return hex.EncodeToString(buf) + ext, nil
}
