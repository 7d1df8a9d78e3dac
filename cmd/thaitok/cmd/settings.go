package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thaisearch/thaitok/internal/logging"
	"github.com/thaisearch/thaitok/internal/settings"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Generate, validate, and apply Thai-aware index settings",
	}
	cmd.AddCommand(
		newSettingsExportCmd(),
		newSettingsValidateCmd(),
		newSettingsApplyCmd(),
	)
	return cmd
}

func newSettingsExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the Thai-aware settings for the configured index",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			s := settings.Default(cfg.Processing.SearchableFields)

			// Custom dictionary entries ride along so the engine treats them
			// as single words too.
			logger := logging.SetupStderr(cfg.LogLevel)
			seg, _, err := buildSegmenter(cfg, logger, nil)
			if err != nil {
				return err
			}
			s.AddDictionary(seg.Dictionary().Current().Words())

			data, err := s.Export()
			if err != nil {
				return err
			}

			if output != "" {
				return os.WriteFile(output, data, 0o644)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func newSettingsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a settings file for Thai-compatibility violations",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			s, err := settings.Import(data)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d dictionary entries, %d stop words)\n",
				args[0], len(s.Dictionary), len(s.StopWords))
			return nil
		},
	}
}

func newSettingsApplyCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Push settings to the search engine and wait for the task",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := logging.SetupStderr(cfg.LogLevel)

			var s *settings.Settings
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				if s, err = settings.Import(data); err != nil {
					return err
				}
			} else {
				s = settings.Default(cfg.Processing.SearchableFields)
				seg, _, err := buildSegmenter(cfg, logger, nil)
				if err != nil {
					return err
				}
				s.AddDictionary(seg.Dictionary().Current().Words())
			}

			client := buildEngineClient(cfg, logger)
			ref, err := client.UpdateSettings(cmd.Context(), cfg.SearchEngine.Index, s)
			if err != nil {
				return err
			}

			task, err := client.WaitForTask(cmd.Context(), ref.TaskUID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "settings applied to %q (task %d: %s)\n",
				cfg.SearchEngine.Index, task.UID, task.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "settings file (default: generated Thai-aware settings)")
	return cmd
}
