package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/gmboard/internal/broadcast"
	"github.com/rpggio/gmboard/internal/config"
	"github.com/rpggio/gmboard/internal/domain/activity"
	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/domain/mutation"
	"github.com/rpggio/gmboard/internal/domain/system"
	"github.com/rpggio/gmboard/internal/mcp"
	"github.com/rpggio/gmboard/internal/overlay"
	"github.com/rpggio/gmboard/internal/sqlite"
	"github.com/rpggio/gmboard/internal/transport"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == config.ModeStdio {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	catalog, err := loadCatalog(cfg.Systems.Path)
	if err != nil {
		logger.Error("failed to load systems", "path", cfg.Systems.Path, "error", err)
		os.Exit(1)
	}

	hub := broadcast.NewHub(cfg.Sync.SubscriberQueue, logger)
	defer hub.Close()

	activityRepo := sqlite.NewActivityRepository(db)
	campaignSvc := campaign.NewService(sqlite.NewCampaignRepository(db), catalog, logger,
		campaign.WithNotifier(hub),
		campaign.WithActivities(activityRepo),
		campaign.WithClampPolicy(cfg.ClampPolicy()),
	)

	registry := overlay.DefaultRegistry()
	for _, sys := range catalog.List() {
		registry.Bind(sys.Name, sys.Layout)
	}

	services := transport.Services{
		Campaigns: campaignSvc,
		Mutations: mutation.NewService(campaignSvc, logger),
		Systems:   catalog,
		Overlay:   overlay.NewResolver(registry),
		Activity:  activity.NewService(activityRepo, logger),
		Hub:       hub,
	}

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Campaigns: services.Campaigns,
			Mutations: services.Mutations,
			Systems:   services.Systems,
			Overlay:   services.Overlay,
			Activity:  services.Activity,
		},
		Version: version,
		Logger:  logger,
	})

	logger.Info("starting gmboard",
		"version", version,
		"transport", cfg.Transport.Mode,
		"systems", len(catalog.Names()),
		"clamp", cfg.ClampPolicy(),
	)

	if cfg.Transport.Mode == config.ModeStdio {
		runStdioMode(logger, mcpServer)
	} else {
		runHTTPMode(logger, cfg, services, mcpServer)
	}
}

func loadCatalog(path string) (*system.Catalog, error) {
	if path == "" {
		return system.Builtin(), nil
	}
	return system.LoadFile(path)
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}

func runHTTPMode(logger *slog.Logger, cfg config.Config, services transport.Services, mcpServer *sdkmcp.Server) {
	router := transport.NewServer(services, logger)

	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/*", mcpHandler)

	if cfg.Uploads.Dir != "" {
		mountUploads(router, cfg.Uploads.Dir)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.Sync.RequestTimeout,
	}

	go func() {
		logger.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func mountUploads(r chi.Router, dir string) {
	files := http.StripPrefix("/uploads/", http.FileServer(http.Dir(dir)))
	r.Get("/uploads/*", files.ServeHTTP)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
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
