package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"event-wall/internal/broadcast"
	"event-wall/internal/config"
	"event-wall/internal/display"
	"event-wall/internal/lanes"
	"event-wall/internal/media"
	"event-wall/internal/moderation"
	"event-wall/internal/server"
	"event-wall/internal/settings"
	"event-wall/internal/slideshow"
	"event-wall/internal/storage"
	ws "event-wall/internal/websocket"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) {
	level, _ := config.ParseLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	dbPath := cfg.DB.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(cfg.DataDir, dbPath)
	}
	db, err := storage.InitDB(cfg.DB.Driver, dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	photos, err := media.New(filepath.Join(cfg.DataDir, "uploads"), cfg.MaxUploadBytes())
	if err != nil {
		return err
	}

	live := settings.New(cfg.Live, db)
	if err := live.Load(ctx); err != nil {
		slog.Warn("using default live config", "error", err)
	}

	pool, err := seedPool(ctx, db, photos)
	if err != nil {
		return err
	}

	hub := ws.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	origin := publicOrigin(cfg)
	fanout := broadcast.New(hub, origin)
	engine := moderation.NewEngine(moderation.NewStore(nil), live, fanout, pool,
		moderation.WithMedia(photos),
		moderation.WithArchive(db),
	)

	srv := server.New(engine, hub, photos, fanout, pool, server.Options{
		SendBuffer: cfg.Hub.SendBuffer,
		Display: display.Options{
			SlideInterval: cfg.Display.SlideInterval,
			SurfaceHeight: cfg.Display.SurfaceHeight,
			LaneHeight:    cfg.Display.LaneHeight,
			Lanes: lanes.Options{
				MinTraversal: cfg.Display.MinTraversal,
				MaxTraversal: cfg.Display.MaxTraversal,
			},
		},
	})

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("event wall starting", "listen", cfg.Listen, "origin", origin, "photos", pool.Len())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}
	// Hijacked websocket connections are not covered by Shutdown; stopping
	// the hub closes them.
	stopHub()
	<-hub.Done()
	return nil
}

// seedPool restores the slideshow from the archive, dropping entries whose
// file has gone missing.
func seedPool(ctx context.Context, db *storage.DB, photos *media.Store) (*slideshow.Pool, error) {
	archived, err := db.ListApprovedPhotos(ctx)
	if err != nil {
		return nil, err
	}
	pool := slideshow.NewPool()
	for _, p := range archived {
		if !photos.Exists(media.Approved, p.Ref) {
			slog.Warn("archived photo missing on disk", "ref", p.Ref)
			if err := db.DeleteApprovedPhoto(ctx, p.Ref); err != nil {
				slog.Warn("prune archive failed", "error", err, "ref", p.Ref)
			}
			continue
		}
		pool.Add(p.Ref)
	}
	slog.Info("slideshow restored", "photos", pool.Len())
	return pool, nil
}

// publicOrigin is the base URL guests reach the server on, used for the QR
// fallback.
func publicOrigin(cfg *config.Config) string {
	if cfg.PublicOrigin != "" {
		return cfg.PublicOrigin
	}
	host, port, err := net.SplitHostPort(cfg.Listen)
	if err != nil {
		return "http://localhost"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
