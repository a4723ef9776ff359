// package thumbnail_api provides the thumbnail generation API handlers.
package thumbnail_api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clipworks/thumbnailer/cmd/web/handlers/common"
	"github.com/clipworks/thumbnailer/internal/selection"
	"github.com/clipworks/thumbnailer/internal/thumbnail"
)

// GenerateRequest is the JSON body of POST /api/thumbnails.
type GenerateRequest struct {
	VideoURL    string   `json:"video_url"`
	Time        *float64 `json:"time"`
	Title       string   `json:"title"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	KeyPrefix   string   `json:"key_prefix"`
	Prompts     []string `json:"prompts"`
	SampleCount int      `json:"sample_count"`
}

func HandleGenerate(gen *thumbnail.Generator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req GenerateRequest
		if err := c.Bind(&req); err != nil {
			return common.ErrBadRequest("invalid request body")
		}

		req.VideoURL = strings.TrimSpace(req.VideoURL)
		if req.VideoURL == "" {
			return common.ErrBadRequest("video_url is required")
		}
		if !strings.HasPrefix(req.VideoURL, "http://") && !strings.HasPrefix(req.VideoURL, "https://") {
			return common.ErrBadRequest("video_url must be an http(s) URL")
		}
		if req.Time != nil && *req.Time < 0 {
			return common.ErrBadRequest("time must not be negative")
		}
		if req.Width < 0 || req.Height < 0 {
			return common.ErrBadRequest("width and height must not be negative")
		}

		out, err := gen.Generate(c.Request().Context(), thumbnail.Request{
			Video:       req.VideoURL,
			Time:        req.Time,
			Title:       req.Title,
			Width:       req.Width,
			Height:      req.Height,
			KeyPrefix:   req.KeyPrefix,
			Prompts:     req.Prompts,
			SampleCount: req.SampleCount,
		})
		if err != nil {
			return mapGenerateError(err)
		}

		return c.JSON(http.StatusOK, out)
	}
}

// mapGenerateError translates pipeline failures into HTTP statuses.
// An unreadable input is the client's problem; other selection
// failures never reach here, the pipeline degrades them to the
// fallback frame instead.
func mapGenerateError(err error) error {
	if errors.Is(err, selection.ErrDurationUnavailable) {
		return common.ErrUnprocessable("could not determine video duration")
	}
	return common.ErrInternal("thumbnail generation failed")
}
