package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ghearing/internal/api"
	"ghearing/internal/store"
	"ghearing/internal/timecode"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage processing jobs",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsDeleteCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			summaries, err := st.ListJobSummaries(cmd.Context(), store.JobFilter{OwnerID: strings.TrimSpace(owner)})
			if err != nil {
				return err
			}

			jobs := make([]api.Job, 0, len(summaries))
			for _, summary := range summaries {
				jobs = append(jobs, api.FromJobSummary(summary))
			}
			if ctx.wantJSON(cmd) {
				return writeJSON(cmd, api.JobListResponse{Jobs: jobs})
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
				return nil
			}

			rows := make([][]string, 0, len(jobs))
			for _, job := range jobs {
				rows = append(rows, []string{
					strconv.FormatInt(job.ID, 10),
					job.Title,
					job.Status,
					strconv.Itoa(job.LinkCount),
					strconv.Itoa(job.UnrecognizedCount),
					job.CreatedAt,
				})
			}
			printTable(cmd,
				[]string{"ID", "Title", "Status", "Songs", "Unrecognized", "Created"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Only list jobs for this owner")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a job and its recognized tracks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			detail, err := st.GetJobDetail(cmd.Context(), id)
			if err != nil {
				return err
			}

			job := api.FromJobDetail(*detail)
			if ctx.wantJSON(cmd) {
				return writeJSON(cmd, api.JobResponse{Job: job})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job %d: %s\n", job.ID, job.Title)
			fmt.Fprintf(out, "Status: %s\n", job.Status)
			fmt.Fprintf(out, "Source: %s\n", job.FilePath)
			if job.DurationSeconds > 0 {
				fmt.Fprintf(out, "Duration: %s\n", timecode.FormatClock(job.DurationSeconds))
			}
			if job.ErrorMessage != "" {
				fmt.Fprintf(out, "Error: %s\n", job.ErrorMessage)
			}
			fmt.Fprintf(out, "Unrecognized segments: %d\n", job.UnrecognizedCount)
			if len(job.Links) == 0 {
				fmt.Fprintln(out, "No tracks linked")
				return nil
			}

			rows := make([][]string, 0, len(job.Links))
			for _, link := range job.Links {
				rows = append(rows, []string{
					link.StartTime,
					link.EndTime,
					link.Track.Artist,
					link.Track.Title,
					yesNo(link.Track.Generated),
				})
			}
			printTable(cmd,
				[]string{"Start", "End", "Artist", "Title", "Generated"},
				rows,
				nil,
			)
			return nil
		},
	}
}

func newJobsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a job, its links, and its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			if err := st.DeleteJob(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %d\n", id)
			return nil
		},
	}
}

func parseJobID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", value)
	}
	return id, nil
}
