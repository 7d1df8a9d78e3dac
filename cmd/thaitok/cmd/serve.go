package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/thaisearch/thaitok/internal/batch"
	"github.com/thaisearch/thaitok/internal/enhance"
	"github.com/thaisearch/thaitok/internal/logging"
	"github.com/thaisearch/thaitok/internal/query"
	"github.com/thaisearch/thaitok/internal/server"
	"github.com/thaisearch/thaitok/internal/telemetry"
)

// telemetryFlushInterval bounds how much telemetry can be lost on a crash.
const telemetryFlushInterval = time.Minute

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the tokenizer HTTP sidecar",
		Long: `Starts the HTTP API for tokenization, query processing, document
indexing, and result enhancement. The process stops cleanly on SIGINT
or SIGTERM, draining in-flight requests.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger := logging.SetupStderr(cfg.LogLevel)
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			done := make(chan struct{})
			defer close(done)

			seg, backend, err := buildSegmenter(cfg, logger, done)
			if err != nil {
				return err
			}

			engine := buildEngineClient(cfg, logger)
			docProc := buildDocumentProcessor(cfg, seg, logger)

			var (
				recorder *telemetry.Recorder
				store    *telemetry.Store
			)
			if cfg.Telemetry.Enabled {
				store, err = telemetry.Open(cfg.Telemetry.DBPath)
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()
				recorder = telemetry.NewRecorder()
			}

			srv := server.New(server.Deps{
				Config:    cfg,
				Segmenter: seg,
				Query: query.NewProcessor(seg, query.Options{
					ExpandVariants:  true,
					PartialMatching: true,
				}, logger),
				Batch: batch.NewEngine(docProc, engine, logger),
				Enhancer: enhance.NewEnhancer(seg, enhance.Options{
					Fields:            cfg.Processing.SearchableFields,
					RelevanceBoosting: true,
				}, logger),
				Engine:   engine,
				Backend:  backend,
				Recorder: recorder,
				Logger:   logger,
			})

			if recorder != nil {
				go flushLoop(ctx, recorder, store, logger)
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if recorder != nil {
				if err := recorder.Flush(store); err != nil {
					logger.Warn("final telemetry flush failed", "error", err)
				}
			}
			return <-errCh
		},
	}
}

// flushLoop periodically persists in-memory telemetry counters.
func flushLoop(ctx context.Context, rec *telemetry.Recorder, store *telemetry.Store, logger *slog.Logger) {
	ticker := time.NewTicker(telemetryFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := rec.Flush(store); err != nil {
				logger.Warn("telemetry flush failed", "error", err)
			}
		}
	}
}
