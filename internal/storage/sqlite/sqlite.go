package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/princekumarofficial/assets-service/internal/storage"
	"github.com/princekumarofficial/assets-service/internal/types/video"
	_ "modernc.org/sqlite"
)

// SQLite is the single-node metadata store used for local runs and tests.
type SQLite struct {
	db *sql.DB
}

var _ storage.Storage = (*SQLite)(nil)

// New opens (or creates) the database at path. ":memory:" gives a private
// in-memory database.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS videos (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			thumbnail_url TEXT,
			video_url TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) CreateVideo(ctx context.Context, v *video.Video) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	v.UpdatedAt = v.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO videos (id, user_id, title, description, thumbnail_url, video_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.UserID, v.Title, v.Description, v.ThumbnailURL, v.VideoURL,
		formatTime(v.CreatedAt), formatTime(v.UpdatedAt),
	)
	return err
}

const selectColumns = `id, user_id, title, description, thumbnail_url, video_url, created_at, updated_at`

func (s *SQLite) GetVideo(ctx context.Context, id string) (*video.Video, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM videos WHERE id = ?`, id)
	return scanVideo(row)
}

func (s *SQLite) UpdateVideo(ctx context.Context, id string, u storage.AssetURLs) (*video.Video, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE videos
		 SET thumbnail_url = COALESCE(?, thumbnail_url), video_url = COALESCE(?, video_url), updated_at = ?
		 WHERE id = ?
		 RETURNING `+selectColumns,
		u.ThumbnailURL, u.VideoURL, formatTime(time.Now().UTC()), id,
	)
	return scanVideo(row)
}

func scanVideo(row *sql.Row) (*video.Video, error) {
	var (
		v                      video.Video
		thumbnailURL, videoURL sql.NullString
		createdAt, updatedAt   string
	)

	err := row.Scan(&v.ID, &v.UserID, &v.Title, &v.Description, &thumbnailURL, &videoURL, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}

	if thumbnailURL.Valid {
		v.ThumbnailURL = &thumbnailURL.String
	}
	if videoURL.Valid {
		v.VideoURL = &videoURL.String
	}
	if v.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if v.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
