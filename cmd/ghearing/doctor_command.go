package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ghearing/internal/preflight"
	"ghearing/internal/procexec"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, directories, and services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, procexec.ExecRunner{}, !offline)

			if ctx.wantJSON(cmd) {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{r.Name, checkState(r), r.Detail})
				}
				printTable(cmd, []string{"Check", "State", "Detail"}, rows, nil)
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip network service checks")
	return cmd
}

func checkState(r preflight.Result) string {
	switch {
	case r.Passed:
		return "ok"
	case r.Skipped:
		return "skipped"
	default:
		return "failed"
	}
}
