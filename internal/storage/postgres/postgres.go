package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/princekumarofficial/assets-service/internal/config"
	"github.com/princekumarofficial/assets-service/internal/storage"
	"github.com/princekumarofficial/assets-service/internal/types/video"
)

type Postgres struct {
	Db *sql.DB
}

var _ storage.Storage = (*Postgres)(nil)

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PGSQL.Host, cfg.PGSQL.Port, cfg.PGSQL.User, cfg.PGSQL.Password, cfg.PGSQL.DBName, cfg.PGSQL.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Connected to Postgres database")

	pg := &Postgres{Db: db}
	if err := pg.CreateTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pg, nil
}

func (p *Postgres) CreateTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS videos (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			thumbnail_url TEXT,
			video_url TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_videos_user_id ON videos(user_id);`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

func (p *Postgres) CreateVideo(ctx context.Context, v *video.Video) error {
	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = v.CreatedAt

	query := `
	INSERT INTO videos (id, user_id, title, description, thumbnail_url, video_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := p.Db.ExecContext(ctx, query, v.ID, v.UserID, v.Title, v.Description,
		v.ThumbnailURL, v.VideoURL, v.CreatedAt, v.UpdatedAt)
	return err
}

func (p *Postgres) GetVideo(ctx context.Context, id string) (*video.Video, error) {
	query := `
	SELECT id, user_id, title, description, thumbnail_url, video_url, created_at, updated_at
	FROM videos WHERE id = $1
	`

	return scanVideo(p.Db.QueryRowContext(ctx, query, id))
}

func (p *Postgres) UpdateVideo(ctx context.Context, id string, u storage.AssetURLs) (*video.Video, error) {
	query := `
	UPDATE videos
	SET thumbnail_url = COALESCE($1, thumbnail_url), video_url = COALESCE($2, video_url), updated_at = $3
	WHERE id = $4
	RETURNING id, user_id, title, description, thumbnail_url, video_url, created_at, updated_at
	`

	return scanVideo(p.Db.QueryRowContext(ctx, query, u.ThumbnailURL, u.VideoURL, time.Now().UTC(), id))
}

func scanVideo(row *sql.Row) (*video.Video, error) {
	var v video.Video
	var thumbnailURL, videoURL sql.NullString
	err := row.Scan(
		&v.ID, &v.UserID, &v.Title, &v.Description,
		&thumbnailURL, &videoURL, &v.CreatedAt, &v.UpdatedAt,
	)
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
	return &v, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.Db.PingContext(ctx)
}

func (p *Postgres) Close() error {
	return p.Db.Close()
}
