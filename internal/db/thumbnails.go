package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

var (
	// ErrThumbnailNotFound means no history row exists for the id.
	ErrThumbnailNotFound = errors.New("thumbnail not found")

	// ErrNoEmbedding means the row exists but was stored without an
	// embedding, so it cannot anchor a similarity search.
	ErrNoEmbedding = errors.New("thumbnail has no stored embedding")
)

// Thumbnail is one generated-thumbnail history record.
type Thumbnail struct {
	ID        uuid.UUID
	ObjectKey string
	URL       string
	Source    string  // video URL or uploaded filename
	FrameTime float64 // seconds into the source video
	Width     int
	Height    int
	Title     string
	CreatedAt time.Time
}

// InsertThumbnail records a generated thumbnail. embedding may be nil
// when the frame was picked at a fixed timestamp rather than scored.
func (db *DatabaseConnection) InsertThumbnail(ctx context.Context, t Thumbnail, embedding []float32) error {
	var vec *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		vec = &v
	}

	_, err := db.Exec(ctx, `
		INSERT INTO thumbnails (id, object_key, url, source, frame_time, width, height, title, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.ObjectKey, t.URL, t.Source, t.FrameTime, t.Width, t.Height, t.Title, vec)
	if err != nil {
		return fmt.Errorf("insert thumbnail %s: %w", t.ID, err)
	}
	return nil
}

// RecentThumbnails returns the newest history records, newest first.
func (db *DatabaseConnection) RecentThumbnails(ctx context.Context, limit int) ([]Thumbnail, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(ctx, `
		SELECT id, object_key, url, source, frame_time, width, height, title, created_at
		FROM thumbnails
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent thumbnails: %w", err)
	}
	defer rows.Close()

	var out []Thumbnail
	for rows.Next() {
		var t Thumbnail
		if err := rows.Scan(&t.ID, &t.ObjectKey, &t.URL, &t.Source, &t.FrameTime, &t.Width, &t.Height, &t.Title, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan thumbnail row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SimilarThumbnails returns the stored thumbnails closest to the given
// record's embedding by cosine distance, nearest first. The anchor
// record itself is excluded.
func (db *DatabaseConnection) SimilarThumbnails(ctx context.Context, id uuid.UUID, limit int) ([]Thumbnail, error) {
	if limit <= 0 {
		limit = 5
	}

	var anchor *pgvector.Vector
	err := db.QueryRow(ctx, `SELECT embedding FROM thumbnails WHERE id = $1`, id).Scan(&anchor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrThumbnailNotFound
		}
		return nil, fmt.Errorf("load thumbnail %s: %w", id, err)
	}
	if anchor == nil {
		return nil, ErrNoEmbedding
	}

	rows, err := db.Query(ctx, `
		SELECT id, object_key, url, source, frame_time, width, height, title, created_at
		FROM thumbnails
		WHERE embedding IS NOT NULL
		  AND id <> $1
		ORDER BY embedding <=> $2
		LIMIT $3`, id, *anchor, limit)
	if err != nil {
		return nil, fmt.Errorf("query similar thumbnails: %w", err)
	}
	defer rows.Close()

	var out []Thumbnail
	for rows.Next() {
		var t Thumbnail
		if err := rows.Scan(&t.ID, &t.ObjectKey, &t.URL, &t.Source, &t.FrameTime, &t.Width, &t.Height, &t.Title, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan thumbnail row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
