package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/clipworks/thumbnailer/cmd/web/internal/web"
	"github.com/clipworks/thumbnailer/internal/application"
	"github.com/clipworks/thumbnailer/internal/config"
	"github.com/clipworks/thumbnailer/internal/db"
	"github.com/clipworks/thumbnailer/internal/embedder"
	"github.com/clipworks/thumbnailer/internal/selection"
	"github.com/clipworks/thumbnailer/internal/storage"
	"github.com/clipworks/thumbnailer/internal/thumbnail"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel(),
		TimeFormat: time.TimeOnly,
	})))

	slog.Info("Starting thumbnail service")

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	uploader, err := storage.New(storage.Config{
		Backend:    conf.UploadBackend,
		CDNBaseURL: conf.CDNBaseURL,
		S3: storage.S3Config{
			Endpoint:  conf.S3Endpoint,
			Region:    conf.S3Region,
			Bucket:    conf.S3Bucket,
			AccessKey: conf.S3AccessKey,
			SecretKey: conf.S3SecretKey,
			UseSSL:    conf.S3UseSSL,
		},
		Bunny: storage.BunnyConfig{
			StorageZone: conf.BunnyStorageZone,
			AccessKey:   conf.BunnyAccessKey,
			RegionHost:  conf.BunnyRegionHost,
		},
		Local: storage.LocalConfig{
			Dir:           conf.LocalDir,
			PublicBaseURL: conf.PublicBaseURL,
		},
	}, slog.Default())
	if err != nil {
		slog.Error("failed to configure storage", "error", err)
		os.Exit(1)
	}
	var localDir string
	if local, ok := uploader.(*storage.LocalUploader); ok {
		localDir = local.Dir()
	}

	emb := embedder.NewClient(
		conf.EmbedderURL,
		conf.EmbedderModel,
		time.Duration(conf.EmbedderTimeoutSeconds)*time.Second,
		slog.Default())

	selector := selection.NewSelector(
		thumbnail.FFmpegProber{},
		thumbnail.FFmpegGrabber{Quality: conf.JPEGQuality},
		emb,
		selection.Config{
			SampleCount: conf.SampleCount,
			GrabWorkers: conf.GrabWorkers,
		},
		slog.Default())

	generator := thumbnail.NewGenerator(
		selector,
		thumbnail.FFmpegRenderer{Quality: conf.JPEGQuality},
		uploader,
		slog.Default()).WithFontFile(conf.FontFile)

	// History is optional; without a DSN the service is stateless.
	var dbc *db.DatabaseConnection
	if conf.DatabaseDSN != "" {
		pool, err := application.OpenDBPoolWithRetry(ctx, *conf)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if dbc, err = db.NewDatabaseConnection(ctx, pool); err != nil {
			slog.Error("failed to create database connection", "error", err)
			os.Exit(1)
		}
		defer dbc.Close()

		if err := dbc.Migrate(ctx); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		generator.WithHistory(dbc, emb)
	}

	e, err := web.NewWebserver(web.Options{
		Generator: generator,
		DB:        dbc,
		LocalDir:  localDir,
	})
	if err != nil {
		slog.Error("failed to create webserver", "error", err)
		os.Exit(1)
	}

	addr := ":" + strconv.Itoa(conf.WebServerPort)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	slog.Info("Listening", "addr", addr)
	if err := e.Start(addr); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		// Echo returns an error on Shutdown; treat it as normal if context is done.
		if ctx.Err() != nil {
			return
		}
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
