package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/personacraft/personad/internal/api"
	"github.com/personacraft/personad/internal/config"
	"github.com/personacraft/personad/internal/engine"
	"github.com/personacraft/personad/internal/templates"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the validation HTTP server",
	Long: `Start the HTTP server exposing the validation API:

  GET    /validation/templates   list registered templates
  POST   /validation/test        validate a candidate against a template
  GET    /validation/metrics     query validation metrics
  DELETE /validation/metrics     delete old validation records

Templates are the builtins plus any YAML files in the configured template
directory. The server shuts down cleanly on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	logger, err := buildLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	eng := engine.NewEngine(registry, store, logger)

	var watcher *templates.Watcher
	if cfg.Templates.Watch && cfg.Templates.Dir != "" {
		watcher, err = templates.NewWatcher(cfg.Templates.Dir, logger)
		if err != nil {
			logger.Warn("template watcher unavailable", zap.Error(err))
			watcher = nil
		} else {
			defer watcher.Close()
		}
	}

	handler := api.NewHandler(api.Config{
		Registry: registry,
		Engine:   eng,
		Metrics:  store,
		Logger:   logger,
	})
	mux := http.NewServeMux()
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	mux.Handle("/", handler)

	server := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: logRequests(logger, mux),
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("server starting",
		zap.String("addr", server.Addr),
		zap.Int("templates", registry.Len()))

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
	if watcher != nil {
		if changed := watcher.ChangedFiles(); len(changed) > 0 {
			logger.Warn("template definitions changed while running; restart to apply",
				zap.Strings("files", changed))
		}
	}
	return nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// logRequests logs every request with its status and duration.
func logRequests(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// buildLogger creates the production zap logger used by the server.
func buildLogger() (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.EncoderConfig.TimeKey = "ts"
	return zapCfg.Build()
}
