package web

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clipworks/thumbnailer/cmd/web/handlers/api/thumbnail_api"
	"github.com/clipworks/thumbnailer/internal/db"
	"github.com/clipworks/thumbnailer/internal/thumbnail"
)

// Options carries the webserver's collaborators. DB is nil when
// history is disabled; LocalDir is non-empty when the local storage
// backend should be served over HTTP.
type Options struct {
	Generator *thumbnail.Generator
	DB        *db.DatabaseConnection
	LocalDir  string
}

type Webserver struct {
	*echo.Echo
	generator *thumbnail.Generator
	dbc       *db.DatabaseConnection
	localDir  string
}

func NewWebserver(opts Options) (*Webserver, error) {
	webserver := &Webserver{
		Echo:      echo.New(),
		generator: opts.Generator,
		dbc:       opts.DB,
		localDir:  opts.LocalDir,
	}

	webserver.registerRoutes()
	webserver.setupMiddleware()

	return webserver, nil
}

func (s *Webserver) setupMiddleware() {
	s.HideBanner = true
	s.HidePort = true
	// Uploads carry whole video files.
	s.Use(middleware.BodyLimit("2G"))
	s.Use(middleware.Recover())
	s.Use(middleware.RequestID())
	s.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))
	s.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			switch c.Path() {
			case "/healthz", "/metrics":
				return true
			default:
				return false
			}
		},
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			slog.Info("request", fields...)
			return nil
		},
	}))
}

func (s *Webserver) registerRoutes() {
	apiGroup := s.Group("/api")
	apiGroup.POST("/thumbnails", thumbnail_api.HandleGenerate(s.generator))
	apiGroup.POST("/thumbnails/upload", thumbnail_api.HandleUpload(s.generator))
	if s.dbc != nil {
		apiGroup.GET("/thumbnails/recent", thumbnail_api.HandleRecent(s.dbc))
		apiGroup.GET("/thumbnails/:id/similar", thumbnail_api.HandleSimilar(s.dbc))
	}

	// Health check
	s.GET("/healthz", func(c echo.Context) error {
		return c.String(200, "ok")
	})

	s.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// The local storage backend writes under localDir; serve it so the
	// returned URLs resolve without a CDN in front.
	if s.localDir != "" {
		s.Static("/thumbnails", s.localDir)
	}
}
