package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/fittracker/internal/cache"
	"github.com/claude/fittracker/internal/config"
	"github.com/claude/fittracker/internal/importer"
	"github.com/claude/fittracker/internal/logging"
	fmcp "github.com/claude/fittracker/internal/mcp"
	"github.com/claude/fittracker/internal/metrics"
	"github.com/claude/fittracker/internal/photos"
	"github.com/claude/fittracker/internal/server"
	"github.com/claude/fittracker/internal/settings"
	"github.com/claude/fittracker/internal/storage"
	"github.com/claude/fittracker/internal/tracker"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, closeLog := logging.New(logging.Params{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	log.Info("FitTracker starting", "version", Version)

	// Run migrations
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Connect database
	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Settings snapshot
	settingsStore, err := settings.Open(cfg.Settings.Dir)
	if err != nil {
		log.Error("failed to open settings store", "error", err)
		os.Exit(1)
	}
	if err := settingsStore.Load(ctx); err != nil {
		log.Warn("some saved settings were ignored", "error", err)
	}

	cacheBackend, err := newCache(ctx, cfg.Cache)
	if err != nil {
		log.Error("failed to set up cache", "backend", cfg.Cache.Backend, "error", err)
		os.Exit(1)
	}
	log.Info("cache ready", "backend", cfg.Cache.Backend)

	loc, err := cfg.Stats.Location()
	if err != nil {
		log.Error("invalid stats timezone", "error", err)
		os.Exit(1)
	}
	opts := tracker.Options{
		Cache:    cacheBackend,
		CacheTTL: cfg.Cache.TTL,
		Location: loc,
		Import:   importer.Options{AcceptObjectForm: cfg.Import.ObjectForm()},
	}
	if cfg.Photos.Enabled {
		photoStore, err := photos.New(ctx, photos.Config{
			Bucket:        cfg.Photos.Bucket,
			Region:        cfg.Photos.Region,
			Endpoint:      cfg.Photos.Endpoint,
			AccessKey:     cfg.Photos.AccessKey,
			SecretKey:     cfg.Photos.SecretKey,
			PublicBaseURL: cfg.Photos.PublicBaseURL,
		})
		if err != nil {
			log.Error("failed to set up photo storage", "error", err)
			os.Exit(1)
		}
		opts.Photos = photoStore
		log.Info("photo storage enabled", "bucket", cfg.Photos.Bucket)
	}

	var metricsManager *metrics.Manager
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metricsManager = metrics.NewManager("fittracker", "server", reg, reg)
		opts.Metrics = metricsManager
	}

	svc := tracker.New(db, settingsStore, log, opts)

	// Start tsnet first so the server can resolve caller identities.
	var listener net.Listener
	srvOpts := server.Options{Metrics: metricsManager}

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srvOpts.WhoIs = lc

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	srv := server.New(svc, db, cfg.Auth.APIKey, log, srvOpts)

	mcpHTTP := mcpserver.NewStreamableHTTPServer(
		fmcp.New(svc, Version, log),
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return fmcp.WithUserID(ctx, server.RequestUserID(r))
		}),
	)
	srv.MountMCP(mcpHTTP)

	if cfg.Server.WebDir != "" {
		srv.SetFrontend(os.DirFS(cfg.Server.WebDir))
		log.Info("serving frontend", "dir", cfg.Server.WebDir)
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	if err := mcpHTTP.Shutdown(shutdownCtx); err != nil {
		log.Error("mcp shutdown error", "error", err)
	}
	if err := multierr.Combine(settingsStore.Close(), cacheBackend.Close()); err != nil {
		log.Error("close error", "error", err)
	}
	log.Info("server stopped")
	if err := closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "closing log file: %v\n", err)
	}
}

func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "redis":
		return cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   "fittracker:",
		})
	case "none":
		return cache.Nop{}, nil
	default:
		return cache.NewMemory(cfg.SizeMB << 20), nil
	}
}

// Compile-time checks: the Postgres store backs the service and maps
// tailnet logins to users.
var (
	_ tracker.Store    = (*storage.DB)(nil)
	_ server.UserStore = (*storage.DB)(nil)
)
