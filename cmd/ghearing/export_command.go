package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ghearing/internal/edl"
	"ghearing/internal/timecode"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var fps int
	var baseHours int
	var title string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write an EDL of the tracks recognized in a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}

			opts := edl.OptionsFromConfig(cfg)
			if cmd.Flags().Changed("fps") {
				if fps <= 0 {
					return errors.New("--fps must be positive")
				}
				opts.FPS = fps
			}
			if cmd.Flags().Changed("base-hours") {
				if baseHours < 0 || baseHours > 23 {
					return errors.New("--base-hours must be between 0 and 23")
				}
				opts.BaseHours = baseHours
			}
			opts.Title = strings.TrimSpace(title)

			exporter := edl.NewExporter(st, cfg.Paths.ExportDir, logger)
			path, err := exporter.Export(cmd.Context(), id, opts)
			if err != nil {
				return err
			}
			if ctx.wantJSON(cmd) {
				return writeJSON(cmd, map[string]any{"jobId": id, "path": path})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().IntVar(&fps, "fps", timecode.DefaultFPS, "Timecode frame rate")
	cmd.Flags().IntVar(&baseHours, "base-hours", edl.DefaultBaseHours, "Hour offset added to every timecode")
	cmd.Flags().StringVar(&title, "title", "", "EDL title (defaults to the job title)")
	return cmd
}
