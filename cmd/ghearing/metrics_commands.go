package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ghearing/internal/api"
	"ghearing/internal/store"
)

func newMetricsCommand(ctx *commandContext) *cobra.Command {
	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "Report track usage across jobs",
	}
	metricsCmd.AddCommand(newMetricsTopCommand(ctx))
	metricsCmd.AddCommand(newMetricsRecentCommand(ctx))
	return metricsCmd
}

func newMetricsTopCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "List the most frequently linked tracks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			usage, err := st.TopTracks(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tracks := api.FromTrackUsage(usage)
			if ctx.wantJSON(cmd) {
				return writeJSON(cmd, api.TopTracksResponse{Tracks: tracks})
			}
			if len(tracks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tracks recorded")
				return nil
			}

			rows := make([][]string, 0, len(tracks))
			for i, entry := range tracks {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					entry.Track.Artist,
					entry.Track.Title,
					strconv.Itoa(entry.Uses),
				})
			}
			printTable(cmd,
				[]string{"#", "Artist", "Title", "Uses"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
			)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", store.DefaultTopTracksLimit, "Number of tracks to list (1-100)")
	return cmd
}

func newMetricsRecentCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Count track links created recently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			now := time.Now()
			since := now.AddDate(0, -1, 0)
			if days > 0 {
				since = now.AddDate(0, 0, -days)
			}
			count, err := st.CountLinksSince(cmd.Context(), since)
			if err != nil {
				return err
			}
			if ctx.wantJSON(cmd) {
				return writeJSON(cmd, api.RecentLinksResponse{
					Since: since.UTC().Format(time.RFC3339),
					Count: count,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d track links since %s\n", count, since.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Window in days (default: the last month)")
	return cmd
}
