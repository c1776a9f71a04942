package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carewise-labs/guidance-cli/internal/model"
	"github.com/carewise-labs/guidance-cli/internal/monitoring"
	"github.com/carewise-labs/guidance-cli/internal/orchestrator"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the guidance HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := initRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		collector := monitoring.NewCollector(rt.Store, cfg.Quota.DefaultDailyCap)

		// Background alert loop.
		checker := monitoring.NewChecker(collector, monitoring.NewAlerter(cfg.Monitoring), cfg.Monitoring)
		go checker.Run(ctx)

		router := newRouter(rt.Orch, collector, rt.Store.Ping, defaultStyleKey(ctx, rt))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// defaultStyleKey picks the catalog's default style for requests that omit one.
func defaultStyleKey(ctx context.Context, rt *runtime) string {
	styles, err := rt.Store.ListStyles(ctx)
	if err != nil {
		zap.L().Warn("failed to load styles, defaulting to plain", zap.Error(err))
		return "plain"
	}
	for _, s := range styles {
		if s.IsDefault {
			return s.Key
		}
	}
	return "plain"
}

// resolver is the orchestrator surface the handlers need.
type resolver interface {
	Resolve(ctx context.Context, key model.Key) (*orchestrator.Resolution, error)
}

// guidanceResponse is the wire shape of a resolved guidance step.
type guidanceResponse struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Instructions   string  `json:"instructions"`
	Warnings       string  `json:"warnings,omitempty"`
	Tips           string  `json:"tips,omitempty"`
	QualityScore   float64 `json:"qualityScore"`
	IsAIGenerated  bool    `json:"isAiGenerated"`
	ProviderID     string  `json:"providerId,omitempty"`
	CacheHit       bool    `json:"cacheHit"`
	Fallback       string  `json:"fallback,omitempty"`
	ResponseTimeMs int64   `json:"responseTimeMs"`
}

// newRouter builds the HTTP API. defaultStyle fills in requests that omit the
// style query parameter.
func newRouter(res resolver, collector *monitoring.Collector, ping func(ctx context.Context) error, defaultStyle string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := ping(req.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/status", func(w http.ResponseWriter, req *http.Request) {
		snap, err := collector.Collect(req.Context())
		if err != nil {
			zap.L().Error("status collection failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "status collection failed"})
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})

	r.Get("/api/guidance/{deviceKey}/{stepNumber}", func(w http.ResponseWriter, req *http.Request) {
		started := time.Now()

		step, err := strconv.Atoi(chi.URLParam(req, "stepNumber"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "step number must be an integer"})
			return
		}

		lang := req.URL.Query().Get("lang")
		if lang == "" {
			lang = "en"
		}
		style := req.URL.Query().Get("style")
		if style == "" {
			style = defaultStyle
		}

		key := model.Key{
			DeviceKey:    chi.URLParam(req, "deviceKey"),
			StepNumber:   step,
			LanguageCode: lang,
			StyleKey:     style,
		}

		resolution, err := res.Resolve(req.Context(), key)
		if err != nil {
			var vErr *model.ValidationError
			if errors.As(err, &vErr) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": vErr.Error()})
				return
			}
			zap.L().Error("resolve failed", zap.String("key", key.String()), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}

		c := resolution.Content
		writeJSON(w, http.StatusOK, guidanceResponse{
			Title:          c.Title,
			Description:    c.Description,
			Instructions:   c.Instructions,
			Warnings:       c.Warnings,
			Tips:           c.Tips,
			QualityScore:   c.QualityScore,
			IsAIGenerated:  c.IsAIGenerated,
			ProviderID:     c.ProviderID,
			CacheHit:       resolution.CacheHit,
			Fallback:       string(resolution.Fallback),
			ResponseTimeMs: time.Since(started).Milliseconds(),
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}
