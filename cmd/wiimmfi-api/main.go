// Entry point for the Wiimmfi stats API — chi router, headless Chrome
// session, coalesced fetch service, SQLite history, optional MCP stdio.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/cors"
	_ "modernc.org/sqlite"

	"github.com/Bitte-ein-Git/wiimmfi-api/browser"
	"github.com/Bitte-ein-Git/wiimmfi-api/config"
	"github.com/Bitte-ein-Git/wiimmfi-api/dbopen"
	"github.com/Bitte-ein-Git/wiimmfi-api/history"
	"github.com/Bitte-ein-Git/wiimmfi-api/shield"
	"github.com/Bitte-ein-Git/wiimmfi-api/wiimmfi"
)

const warmingMessage = "Server is warming up, please try again in 30 seconds."

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logLevel := env("LOG_LEVEL", "info")

	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	// Stderr, because stdout belongs to the MCP transport when enabled.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFile(*configPath)
		if err != nil {
			slog.Error("config", "error", err)
			os.Exit(1)
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Listen = ":" + port
	}

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// History DB.
	historyDB, err := dbopen.Open(cfg.History.Path, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("history db", "error", err)
		os.Exit(1)
	}
	defer historyDB.Close()

	store := history.NewStore(historyDB)
	if err := store.Init(); err != nil {
		slog.Error("history init", "error", err)
		os.Exit(1)
	}

	// Browser session. Chrome launches lazily on the first fetch.
	session := browser.NewSession(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		UserAgent:        cfg.Browser.UserAgent,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		Logger:           logger,
	})
	defer session.Close()

	// Fetch service.
	svc := wiimmfi.New(session, wiimmfi.DirLoader{Dir: cfg.Scrape.FallbackDir}, wiimmfi.Config{
		TargetURL:    cfg.Scrape.URL,
		TableMarker:  cfg.Scrape.TableMarker,
		NavTimeout:   cfg.Scrape.NavTimeout,
		FallbackName: cfg.Scrape.FallbackName,
	}, logger, wiimmfi.WithCycleObserver(func(snap *wiimmfi.Snapshot) {
		if err := store.Record(snap); err != nil {
			logger.Warn("history record", "error", err)
		}
	}))

	// Optional MCP over stdio.
	if cfg.MCP.Enabled {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "wiimmfi-api",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)

		go func() {
			transport := &mcp.IOTransport{
				Reader: io.NopCloser(os.Stdin),
				Writer: os.Stdout,
			}
			slog.Info("MCP stdio starting")
			if err := mcpSrv.Run(ctx, transport); err != nil && ctx.Err() == nil {
				slog.Error("MCP stdio", "error", err)
			}
		}()
	}

	// Router.
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack(logger, cfg.RateLimit.MaxPerMinute) {
		r.Use(mw)
	}
	r.Use(cors.AllowAll().Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		snap, err := svc.Fetch(r.Context())
		if err != nil {
			if errors.Is(err, wiimmfi.ErrWarmingUp) {
				w.Header().Set("Retry-After", "30")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": warmingMessage})
				return
			}
			writeError(w, 500, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(snap.JSON)
	})

	r.Get("/history", func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", cfg.History.Limit)
		cycles, err := store.Recent(r.Context(), limit)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, cycles)
	})

	r.Get("/history/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, 400, err)
			return
		}
		body, err := store.Body(r.Context(), id)
		if err != nil {
			if errors.Is(err, history.ErrNotFound) {
				writeError(w, 404, err)
				return
			}
			writeError(w, 500, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	})

	// HTTP server.
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// Cold-start requests run the whole browser navigation inline.
		WriteTimeout: cfg.Scrape.NavTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// --- Helpers ---

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
