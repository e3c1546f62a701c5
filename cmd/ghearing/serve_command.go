package main

import (
	"github.com/spf13/cobra"

	"ghearing/internal/api"
	"ghearing/internal/edl"
	"ghearing/internal/logging"
	"ghearing/internal/pipeline"
	"ghearing/internal/preflight"
	"ghearing/internal/procexec"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
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

			runCfg := *cfg
			if bind != "" {
				runCfg.Paths.APIBind = bind
			}

			checks := preflight.RunAll(cmd.Context(), &runCfg, procexec.ExecRunner{}, false)
			for _, failed := range preflight.Failed(checks) {
				logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
					logging.String("check", failed.Name),
					logging.String("detail", failed.Detail),
					logging.String(logging.FieldErrorHint, "run `ghearing doctor` for details"),
				)
			}

			server := api.NewServer(
				&runCfg,
				st,
				pipeline.NewFromConfig(&runCfg, st, logger),
				edl.NewExporter(st, runCfg.Paths.ExportDir, logger),
				logger,
			)
			return server.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override the listen address (host:port)")
	return cmd
}
