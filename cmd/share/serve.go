package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/yourname/share_lite/internal/app/sharehttp"
	"github.com/yourname/share_lite/internal/config"
	"github.com/yourname/share_lite/internal/logging"
	"github.com/yourname/share_lite/internal/metrics"
	"github.com/yourname/share_lite/internal/store"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the upload gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

// serve поднимает шлюз (и, если задан admin_addr, ops-листенер) и работает до отмены ctx.
func serve(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	maxBytes, err := cfg.MaxUploadBytes()
	if err != nil {
		return err
	}

	m := metrics.New()
	st, err := store.Open(cfg.StoreDir, store.Options{
		ChunkSize: cfg.ChunkSize,
		MaxBytes:  maxBytes,
		Observer:  m,
	})
	if err != nil {
		return err
	}

	if cfg.GC.Enabled {
		every, olderThan, err := cfg.GC.Durations()
		if err != nil {
			return err
		}
		stopGC := sharehttp.StartGC(st, logger, olderThan, every)
		defer stopGC()
	}

	servers := []*http.Server{{
		Addr: cfg.ListenAddr,
		Handler: sharehttp.New(sharehttp.Deps{
			Store:          st,
			Secret:         cfg.Secret,
			BasePath:       cfg.BasePath,
			MaxUploadBytes: maxBytes,
			Logger:         logger,
			Metrics:        m,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.AdminAddr != "" {
		servers = append(servers, &http.Server{
			Addr:              cfg.AdminAddr,
			Handler:           sharehttp.NewAdmin(st, m),
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(srv)
	}

	limit := "unlimited"
	if maxBytes > 0 {
		limit = humanize.IBytes(uint64(maxBytes))
	}
	logger.Info("gateway listening",
		"addr", cfg.ListenAddr, "admin", cfg.AdminAddr, "base", cfg.BasePath,
		"store", cfg.StoreDir, "max_upload", limit, "gc", cfg.GC.Enabled)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		logger.Error("listener failed", "err", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("shutdown error", "addr", srv.Addr, "err", err)
		}
	}
	logger.Info("gateway stopped")

	return runErr
}
