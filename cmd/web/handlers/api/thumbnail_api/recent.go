package thumbnail_api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clipworks/thumbnailer/cmd/web/handlers/common"
	"github.com/clipworks/thumbnailer/internal/db"
)

const defaultHistoryLimit = 20

// historyStore is the slice of db.DatabaseConnection the history
// handlers use.
type historyStore interface {
	RecentThumbnails(ctx context.Context, limit int) ([]db.Thumbnail, error)
	SimilarThumbnails(ctx context.Context, id uuid.UUID, limit int) ([]db.Thumbnail, error)
}

type historyItem struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Source    string    `json:"source"`
	FrameTime float64   `json:"frame_time"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toHistoryItems(recs []db.Thumbnail) []historyItem {
	items := make([]historyItem, 0, len(recs))
	for _, r := range recs {
		items = append(items, historyItem{
			ID:        r.ID.String(),
			URL:       r.URL,
			Source:    r.Source,
			FrameTime: r.FrameTime,
			Width:     r.Width,
			Height:    r.Height,
			Title:     r.Title,
			CreatedAt: r.CreatedAt,
		})
	}
	return items
}

func limitParam(c echo.Context) (int, *echo.HTTPError) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > 100 {
		return 0, common.ErrBadRequest("invalid limit")
	}
	return n, nil
}

// HandleRecent lists the newest generated thumbnails. Registered only
// when history is enabled.
func HandleRecent(store historyStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, httpErr := limitParam(c)
		if httpErr != nil {
			return httpErr
		}

		recs, err := store.RecentThumbnails(c.Request().Context(), limit)
		if err != nil {
			return common.ErrInternal("could not list thumbnails")
		}
		return c.JSON(http.StatusOK, toHistoryItems(recs))
	}
}
