package thumbnail_api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clipworks/thumbnailer/cmd/web/handlers/common"
	"github.com/clipworks/thumbnailer/internal/db"
)

// HandleSimilar lists stored thumbnails whose embedding is closest to
// the given one, by cosine distance. Registered only when history is
// enabled.
func HandleSimilar(store historyStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return common.ErrBadRequest("invalid id")
		}

		limit, httpErr := limitParam(c)
		if httpErr != nil {
			return httpErr
		}

		recs, err := store.SimilarThumbnails(c.Request().Context(), id, limit)
		switch {
		case errors.Is(err, db.ErrThumbnailNotFound):
			return common.ErrNotFound("thumbnail not found")
		case errors.Is(err, db.ErrNoEmbedding):
			return common.ErrUnprocessable("thumbnail has no stored embedding")
		case err != nil:
			return common.ErrInternal("could not search thumbnails")
		}
		return c.JSON(http.StatusOK, toHistoryItems(recs))
	}
}
