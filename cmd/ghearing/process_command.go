package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ghearing/internal/api"
	"ghearing/internal/pipeline"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var title string
	var owner string
	var keepSource bool
	var retainClips bool

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Detect and identify the music in a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			source, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			runCfg := *cfg
			if keepSource {
				runCfg.Pipeline.RemoveSource = false
			}
			if retainClips {
				runCfg.Pipeline.RetainClips = true
			}

			p := pipeline.NewFromConfig(&runCfg, st, logger)
			result := p.Run(cmd.Context(), pipeline.Request{
				SourcePath: source,
				Title:      strings.TrimSpace(title),
				OwnerID:    strings.TrimSpace(owner),
			})

			if ctx.wantJSON(cmd) {
				if err := writeJSON(cmd, api.FromResult(result)); err != nil {
					return err
				}
			} else {
				printProcessResult(cmd, result)
			}
			if !result.Success {
				return fmt.Errorf("%s", result.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Job title (defaults to the file name)")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner identifier recorded on the job")
	cmd.Flags().BoolVar(&keepSource, "keep-source", false, "Keep the input file after processing")
	cmd.Flags().BoolVar(&retainClips, "retain-clips", false, "Keep cut clips for review")
	return cmd
}

func printProcessResult(cmd *cobra.Command, result pipeline.Result) {
	out := cmd.OutOrStdout()
	if result.JobID > 0 {
		fmt.Fprintf(out, "Job %d: %s\n", result.JobID, result.Message)
	} else {
		fmt.Fprintln(out, result.Message)
	}
	if len(result.Recognized) == 0 {
		return
	}

	rows := make([][]string, 0, len(result.Recognized))
	for _, song := range result.Recognized {
		rows = append(rows, []string{
			fmt.Sprintf("%d", song.Segment.Index),
			song.Segment.Start,
			song.Segment.End,
			song.Match.Artist,
			song.Match.Title,
			string(song.Source),
		})
	}
	printTable(cmd,
		[]string{"#", "Start", "End", "Artist", "Title", "Source"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	)
	fmt.Fprintf(out, "Segments: %d  Songs: %d  Unrecognized: %d\n",
		result.SegmentsCount, result.SongsCount, result.UnrecognizedCount)
}
