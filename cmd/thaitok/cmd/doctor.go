package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/thaisearch/thaitok/internal/errors"
	"github.com/thaisearch/thaitok/internal/logging"
	"github.com/thaisearch/thaitok/internal/telemetry"
	"github.com/thaisearch/thaitok/internal/tokenizer"
	"github.com/thaisearch/thaitok/internal/ui"
)

type doctorCheck struct {
	name   string
	status string // "ok", "warn", "fail", "skip"
	detail string
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and dependency health",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			styles := ui.StylesFor(out)
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				styles = ui.NoColorStyles()
			}

			fmt.Fprintln(out, styles.Header.Render("thaitok doctor"))

			checks := runDoctorChecks(cmd)
			failed := 0
			for _, c := range checks {
				var mark string
				switch c.status {
				case "ok":
					mark = styles.Success.Render("✓")
				case "warn":
					mark = styles.Warning.Render("!")
				case "skip":
					mark = styles.Dim.Render("-")
				default:
					mark = styles.Error.Render("✗")
					failed++
				}
				fmt.Fprintf(out, "  %s %s %s\n", mark, c.name, styles.Dim.Render(c.detail))
			}

			if failed > 0 {
				return errors.New(errors.ErrCodeInternal,
					fmt.Sprintf("%d check(s) failed", failed), nil)
			}
			fmt.Fprintln(out, styles.Success.Render("all checks passed"))
			return nil
		},
	}
}

func runDoctorChecks(cmd *cobra.Command) []doctorCheck {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return []doctorCheck{{name: "configuration", status: "fail", detail: err.Error()}}
	}
	checks := []doctorCheck{{name: "configuration", status: "ok",
		detail: fmt.Sprintf("engine=%s index=%s", cfg.Tokenizer.Engine, cfg.SearchEngine.Index)}}
	logger := logging.SetupStderr("error")

	// Segmentation backend: optional, the character fallback covers its absence.
	if cfg.Tokenizer.BackendURL == "" {
		checks = append(checks, doctorCheck{name: "segmentation backend", status: "skip",
			detail: "not configured (character fallback active)"})
	} else {
		backend := tokenizer.NewHTTPBackend(tokenizer.HTTPBackendConfig{
			BaseURL: cfg.Tokenizer.BackendURL,
			Timeout: cfg.Tokenizer.BackendTimeout,
		})
		if err := backend.Health(ctx); err != nil {
			checks = append(checks, doctorCheck{name: "segmentation backend", status: "warn",
				detail: "unreachable, character fallback will be used: " + err.Error()})
		} else {
			checks = append(checks, doctorCheck{name: "segmentation backend", status: "ok",
				detail: cfg.Tokenizer.BackendURL})
		}
	}

	if err := buildEngineClient(cfg, logger).Health(ctx); err != nil {
		checks = append(checks, doctorCheck{name: "search engine", status: "fail",
			detail: cfg.SearchEngine.BaseURL() + ": " + err.Error()})
	} else {
		checks = append(checks, doctorCheck{name: "search engine", status: "ok",
			detail: cfg.SearchEngine.BaseURL()})
	}

	if cfg.Tokenizer.DictionaryPath == "" {
		checks = append(checks, doctorCheck{name: "custom dictionary", status: "skip",
			detail: "not configured"})
	} else {
		dict := tokenizer.NewDictionary(nil, false)
		if snap, err := dict.LoadFile(cfg.Tokenizer.DictionaryPath); err != nil {
			checks = append(checks, doctorCheck{name: "custom dictionary", status: "fail",
				detail: err.Error()})
		} else {
			checks = append(checks, doctorCheck{name: "custom dictionary", status: "ok",
				detail: fmt.Sprintf("%d words", snap.Len())})
		}
	}

	if !cfg.Telemetry.Enabled {
		checks = append(checks, doctorCheck{name: "telemetry store", status: "skip",
			detail: "disabled"})
	} else if store, err := telemetry.Open(cfg.Telemetry.DBPath); err != nil {
		checks = append(checks, doctorCheck{name: "telemetry store", status: "fail",
			detail: err.Error()})
	} else {
		_ = store.Close()
		checks = append(checks, doctorCheck{name: "telemetry store", status: "ok",
			detail: cfg.Telemetry.DBPath})
	}

	return checks
}
