package assets

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// SpoolPattern names the temp files Spool creates in os.TempDir.
const SpoolPattern = "assets-upload-*"

// Payload is an uploaded file spooled to a temp file. Close removes it.
type Payload struct {
	MediaType string
	Size      int64
	path      string
}

// Spool copies r into a temp file, reading at most maxBytes+1 bytes so an
// oversized body is rejected without buffering it.
func Spool(r io.Reader, mediaType string, maxBytes int64) (*Payload, error) {
	if r == nil {
		return nil, ErrMissingFile
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max bytes must be greater than 0")
	}

	tmp, err := os.CreateTemp("", SpoolPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %v", ErrStorageFailure, err)
	}
	path := tmp.Name()
	keep := false
	defer func() {
		_ = tmp.Close()
		if !keep {
			_ = os.Remove(path)
		}
	}()

	written, err := copyLimited(tmp, r, maxBytes)
	if err != nil {
		return nil, err
	}

	keep = true
	return &Payload{
		MediaType: NormalizeMediaType(mediaType),
		Size:      written,
		path:      path,
	}, nil
}

// Open returns a reader over the spooled bytes.
func (p *Payload) Open() (io.ReadCloser, error) {
	return os.Open(p.path)
}

// Bytes reads the whole payload into memory.
func (p *Payload) Bytes() ([]byte, error) {
	return os.ReadFile(p.path)
}

func (p *Payload) Close() error {
	if p == nil || p.path == "" {
		return nil
	}
	err := os.Remove(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// copyLimited copies at most maxBytes+1 bytes of r into dst. A failing read
// is the client's fault; a failing write is ours.
func copyLimited(dst io.Writer, r io.Reader, maxBytes int64) (int64, error) {
	limited := &io.LimitedReader{R: r, N: maxBytes + 1}
	written, err := io.Copy(spoolWriter{dst}, limited)

	var werr *spoolWriteError
	switch {
	case errors.As(err, &werr), errors.Is(err, io.ErrShortWrite):
		return written, fmt.Errorf("%w: write spool file: %v", ErrStorageFailure, err)
	case err != nil:
		return written, fmt.Errorf("%w: read upload: %v", ErrBadRequest, err)
	case written > maxBytes:
		return written, fmt.Errorf("%w: max %d bytes", ErrPayloadTooLarge, maxBytes)
	}
	return written, nil
}

type spoolWriter struct {
	w io.Writer
}

func (s spoolWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err != nil {
		err = &spoolWriteError{err: err}
	}
	return n, err
}

type spoolWriteError struct {
	err error
}

func (e *spoolWriteError) Error() string { return e.err.Error() }

func (e *spoolWriteError) Unwrap() error { return e.err }
