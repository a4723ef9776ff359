package thumbnail_api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipworks/thumbnailer/internal/selection"
)

func multipartRequest(t *testing.T, fields map[string]string, withFile bool) echo.Context {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if withFile {
		fw, err := w.CreateFormFile("video", "clip.mp4")
		require.NoError(t, err)
		_, err = fw.Write([]byte("not really a video"))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/thumbnails/upload", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return e.NewContext(req, httptest.NewRecorder())
}

func TestHandleUpload(t *testing.T) {
	t.Run("missing file is a bad request", func(t *testing.T) {
		h := HandleUpload(newGenerator(&stubSelector{res: &selection.Result{Timestamp: 1}}))
		err := h(multipartRequest(t, nil, false))

		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})

	t.Run("form fields become the request", func(t *testing.T) {
		c := multipartRequest(t, map[string]string{
			"time":         "4.5",
			"title":        "Keynote",
			"width":        "640",
			"height":       "360",
			"key_prefix":   "covers/",
			"prompts":      "a stage, a crowd",
			"sample_count": "6",
		}, true)

		fileHeader, err := c.FormFile("video")
		require.NoError(t, err)

		req, httpErr := requestFromForm(c, "/tmp/spooled.mp4", fileHeader.Filename)
		require.Nil(t, httpErr)

		assert.Equal(t, "/tmp/spooled.mp4", req.Video)
		assert.Equal(t, "clip.mp4", req.Source)
		require.NotNil(t, req.Time)
		assert.Equal(t, 4.5, *req.Time)
		assert.Equal(t, "Keynote", req.Title)
		assert.Equal(t, 640, req.Width)
		assert.Equal(t, 360, req.Height)
		assert.Equal(t, "covers/", req.KeyPrefix)
		assert.Equal(t, []string{"a stage", "a crowd"}, req.Prompts)
		assert.Equal(t, 6, req.SampleCount)
	})

	t.Run("invalid form numbers are rejected", func(t *testing.T) {
		for field, value := range map[string]string{
			"time":         "soon",
			"width":        "-1",
			"sample_count": "lots",
		} {
			c := multipartRequest(t, map[string]string{field: value}, true)
			_, httpErr := requestFromForm(c, "/tmp/spooled.mp4", "clip.mp4")
			require.NotNil(t, httpErr, field)
			assert.Equal(t, http.StatusBadRequest, httpErr.Code, field)
		}
	})
}
