package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/relaychat/relaychat/server/internal/api"
	"github.com/relaychat/relaychat/server/internal/config"
	"github.com/relaychat/relaychat/server/internal/hub"
	"github.com/relaychat/relaychat/server/internal/protocol"
	"github.com/relaychat/relaychat/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	staticDir := flag.String("static-dir", "", "serve chat page static files from this directory; leave empty to disable")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("relaychat-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"send_buffer", cfg.Server.Hub.SendBuffer,
		"write_timeout", cfg.Server.Hub.WriteTimeout,
		"max_message_bytes", cfg.Server.Hub.MaxMessageBytes,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// One hub per process, shared by every connection's handling goroutine.
	chatHub := hub.New()
	proto := protocol.NewHandler(chatHub)
	wsHandler := ws.NewHandler(chatHub, proto, limitsFrom(cfg))

	// Hot-reload: new connections pick up changed hub limits.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			wsHandler.UpdateLimits(limitsFrom(updated))
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	httpMux := http.NewServeMux()
	httpMux.Handle("/chat", wsHandler)
	httpMux.Handle("/api/", api.New(chatHub))
	httpMux.Handle("/metrics", api.Metrics(chatHub))

	// Optional: serve the chat page from a local directory.
	if *staticDir != "" {
		httpMux.Handle("/", http.FileServer(http.Dir(*staticDir)))
		slog.Info("serving static files", "dir", *staticDir)
	}

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("relaychat-server shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}

// limitsFrom maps the config hub section onto transport limits.
func limitsFrom(cfg *config.Config) ws.Limits {
	return ws.Limits{
		SendBuffer:      cfg.Server.Hub.SendBuffer,
		WriteTimeout:    cfg.Server.Hub.WriteTimeout,
		PongWait:        cfg.Server.Hub.PongWait,
		MaxMessageBytes: cfg.Server.Hub.MaxMessageBytes,
	}
}
