package thumbnail_api

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clipworks/thumbnailer/cmd/web/handlers/common"
	"github.com/clipworks/thumbnailer/internal/thumbnail"
)

// HandleUpload accepts a multipart video file and generates a thumbnail
// for it. Form fields mirror the JSON API: time, title, width, height,
// key_prefix, prompts (comma separated), sample_count.
func HandleUpload(gen *thumbnail.Generator) echo.HandlerFunc {
	return func(c echo.Context) error {
		fileHeader, err := c.FormFile("video")
		if err != nil {
			return common.ErrBadRequest("video file is required")
		}

		src, err := fileHeader.Open()
		if err != nil {
			return common.ErrBadRequest("could not read uploaded file")
		}
		defer src.Close()

		// ffmpeg needs a seekable input, so spool the upload to disk.
		tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(fileHeader.Filename))
		if err != nil {
			return common.ErrInternal("could not buffer upload")
		}
		tmpPath := tmp.Name()
		defer os.Remove(tmpPath)

		if _, err := io.Copy(tmp, src); err != nil {
			tmp.Close()
			return common.ErrInternal("could not buffer upload")
		}
		if err := tmp.Close(); err != nil {
			return common.ErrInternal("could not buffer upload")
		}

		req, httpErr := requestFromForm(c, tmpPath, fileHeader.Filename)
		if httpErr != nil {
			return httpErr
		}

		out, err := gen.Generate(c.Request().Context(), req)
		if err != nil {
			return mapGenerateError(err)
		}
		return c.JSON(http.StatusOK, out)
	}
}

func requestFromForm(c echo.Context, videoPath, filename string) (thumbnail.Request, *echo.HTTPError) {
	req := thumbnail.Request{
		Video:     videoPath,
		Source:    filename,
		Title:     c.FormValue("title"),
		KeyPrefix: c.FormValue("key_prefix"),
	}

	if raw := strings.TrimSpace(c.FormValue("time")); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil || t < 0 {
			return req, common.ErrBadRequest("invalid time")
		}
		req.Time = &t
	}
	var httpErr *echo.HTTPError
	if req.Width, httpErr = formInt(c, "width"); httpErr != nil {
		return req, httpErr
	}
	if req.Height, httpErr = formInt(c, "height"); httpErr != nil {
		return req, httpErr
	}
	if req.SampleCount, httpErr = formInt(c, "sample_count"); httpErr != nil {
		return req, httpErr
	}
	if raw := strings.TrimSpace(c.FormValue("prompts")); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				req.Prompts = append(req.Prompts, p)
			}
		}
	}
	return req, nil
}

func formInt(c echo.Context, field string) (int, *echo.HTTPError) {
	raw := strings.TrimSpace(c.FormValue(field))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, common.ErrBadRequest("invalid " + field)
	}
	return n, nil
}
