package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thaisearch/thaitok/internal/batch"
	"github.com/thaisearch/thaitok/internal/errors"
	"github.com/thaisearch/thaitok/internal/logging"
	"github.com/thaisearch/thaitok/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var (
		file   string
		index  string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Tokenize a JSON document file and push it to the search engine",
		Long: `Reads a JSON array of documents, runs each through the Thai
tokenization pipeline, and bulk-adds the results to the configured
index. With --dry-run the documents are processed but nothing is sent.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := logging.SetupStderr(cfg.LogLevel)

			var data []byte
			if file == "-" {
				if data, err = io.ReadAll(cmd.InOrStdin()); err != nil {
					return err
				}
			} else if data, err = os.ReadFile(file); err != nil {
				return errors.Wrap(errors.ErrCodeFileNotFound, err)
			}
			var docs []map[string]any
			if err := json.Unmarshal(data, &docs); err != nil {
				return errors.New(errors.ErrCodeInvalidInput,
					"document file must be a JSON array of objects: "+err.Error(), err)
			}

			seg, _, err := buildSegmenter(cfg, logger, nil)
			if err != nil {
				return err
			}
			eng := batch.NewEngine(
				buildDocumentProcessor(cfg, seg, logger),
				buildEngineClient(cfg, logger),
				logger,
			)

			target := index
			if target == "" {
				target = cfg.SearchEngine.Index
			}

			result := eng.Run(cmd.Context(), docs, batch.Options{
				BatchSize:     cfg.Processing.BatchSize,
				MaxConcurrent: cfg.Processing.MaxConcurrent,
				MaxRetries:    cfg.Processing.MaxRetries,
				Index:         target,
				DryRun:        dryRun,
			})

			printBatchResult(cmd, result, target, dryRun)

			if result.Failed > 0 || len(result.Errors) > 0 {
				return errors.New(errors.ErrCodeProcessingFailed,
					fmt.Sprintf("%d of %d documents failed", result.Failed, result.Total), nil)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON document file, or - for stdin (required)")
	cmd.Flags().StringVar(&index, "index", "", "target index (default: configured index)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "process documents without indexing")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func printBatchResult(cmd *cobra.Command, result *batch.Result, index string, dryRun bool) {
	out := cmd.OutOrStdout()
	noColor, _ := cmd.Flags().GetBool("no-color")
	styles := ui.StylesFor(out)
	if noColor {
		styles = ui.NoColorStyles()
	}

	header := fmt.Sprintf("Batch %s → %s", result.BatchID, index)
	if dryRun {
		header += " (dry run)"
	}
	fmt.Fprintln(out, styles.Header.Render(header))
	fmt.Fprintf(out, "  %s %d documents in %.1f ms\n",
		styles.Label.Render("processed"), result.Total, result.ElapsedMS)
	fmt.Fprintf(out, "  %s %d  %s %d  %s %d\n",
		styles.Success.Render("completed"), result.Completed,
		styles.Dim.Render("skipped"), result.Skipped,
		styles.Error.Render("failed"), result.Failed)

	for _, docErr := range result.Errors {
		fmt.Fprintf(out, "  %s doc[%d] %s: %s\n",
			styles.Error.Render("error"), docErr.Index, docErr.ID, docErr.Message)
	}
}
