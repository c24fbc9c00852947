package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prospectai/prospect-cli/internal/model"
	"github.com/prospectai/prospect-cli/internal/orchestrate"
)

var servePort int

type extractHTTPRequest struct {
	URL     string        `json:"url,omitempty"`
	Text    string        `json:"text,omitempty"`
	Company string        `json:"company,omitempty"`
	Seed    *model.Record `json:"seed,omitempty"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP extraction server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}
		env, err := initPipeline(cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Post("/extract/profile", extractHandler(env.Orchestrator, model.KindProfile))
		r.Post("/extract/team", extractHandler(env.Orchestrator, model.KindTeamRoster))
		r.Post("/extract/product", extractHandler(env.Orchestrator, model.KindProductInfo))
		r.Post("/extract/metrics", extractHandler(env.Orchestrator, model.KindBusinessMetrics))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			if err := srv.Shutdown(cmd.Context()); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func extractHandler(orc *orchestrate.Orchestrator, kind model.RecordKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req extractHTTPRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if req.URL == "" && req.Text == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url or text is required"})
			return
		}

		result := orc.Run(r.Context(), orchestrate.Request{
			URL:     req.URL,
			RawText: req.Text,
			Kind:    kind,
			Company: req.Company,
			Seed:    req.Seed,
		})

		status := http.StatusOK
		if !result.Success {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, result)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
