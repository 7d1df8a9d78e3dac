package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thaisearch/thaitok/internal/errors"
	"github.com/thaisearch/thaitok/internal/logging"
	"github.com/thaisearch/thaitok/internal/query"
	"github.com/thaisearch/thaitok/internal/tokenizer"
)

func newTokenizeCmd() *cobra.Command {
	var (
		engine   string
		compound bool
		asQuery  bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "tokenize [text]",
		Short: "Segment Thai text from an argument or stdin",
		Args:  maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if engine != "" {
				cfg.Tokenizer.Engine = engine
				if err := cfg.Validate(); err != nil {
					return &usageError{err: err}
				}
			}
			logger := logging.SetupStderr(cfg.LogLevel)

			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return errors.ValidationError("no text to tokenize", nil)
			}

			seg, _, err := buildSegmenter(cfg, logger, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if asQuery {
				qr, err := query.NewProcessor(seg, query.Options{
					ExpandVariants:  true,
					PartialMatching: true,
				}, logger).Process(cmd.Context(), text)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(qr)
				}
				for _, tok := range qr.Tokens {
					fmt.Fprintf(out, "%s\t%s\tboost=%.2f\n", tok.Original, tok.Kind, tok.Boost)
				}
				return nil
			}

			var res *tokenizer.SegmentationResult
			if compound {
				res, err = seg.SegmentCompound(cmd.Context(), text)
			} else {
				res, err = seg.Segment(cmd.Context(), text)
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"tokens":             res.Surfaces(),
					"engine":             res.Engine,
					"fallback_used":      res.FallbackUsed,
					"processing_time_ms": res.ElapsedMS,
				})
			}

			fmt.Fprintln(out, strings.Join(res.Surfaces(), " | "))
			return nil
		},
	}

	cmd.Flags().StringVar(&engine, "engine", "", "segmentation engine (newmm, attacut, deepcut)")
	cmd.Flags().BoolVar(&compound, "compound", false, "apply compound-aware segmentation")
	cmd.Flags().BoolVar(&asQuery, "query", false, "process the input as a search query (classification, boosts, variants)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of plain tokens")

	return cmd
}
