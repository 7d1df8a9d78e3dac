// Package cmd implements the thaitok command-line interface.
package cmd

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thaisearch/thaitok/internal/config"
)

// Exit codes. Usage errors are distinguished from runtime failures so
// scripts can tell a typo from a dead dependency.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// usageError marks errors caused by bad invocation rather than by the
// work itself.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "thaitok",
		Short: "Thai tokenization sidecar for search engines",
		Long: `thaitok segments Thai text into searchable tokens and feeds a
Meilisearch-compatible engine: it tokenizes documents and queries,
manages Thai-aware index settings, and enhances search results.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "path to thaitok.yaml (default: ./thaitok.yaml)")
	root.PersistentFlags().String("log-level", "", "override log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("no-color", false, "disable colored output")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.AddCommand(
		newServeCmd(),
		newTokenizeCmd(),
		newIndexCmd(),
		newSettingsCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)

	return root
}

// Execute runs the CLI and maps errors to process exit codes.
func Execute() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		var ue *usageError
		if stderrors.As(err, &ue) || strings.Contains(err.Error(), "unknown command") {
			return exitUsage
		}
		return exitFailure
	}
	return exitOK
}

// loadConfig builds the effective configuration for a command invocation.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(".", path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	return cfg, nil
}

// exactArgs is cobra.ExactArgs with usage-error classification.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// maxArgs is cobra.MaximumNArgs with usage-error classification.
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
