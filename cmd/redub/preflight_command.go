package main

import (
	"github.com/spf13/cobra"

	"redub/internal/preflight"
	"redub/internal/services"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check external tools and configured backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				printer := newStatusPrinter(cmd.OutOrStdout())
				printer.section("Preflight")
				for _, result := range results {
					printer.result(result)
				}
			}
			if failed, ok := preflight.FirstFailure(results); ok {
				code := failed.Code
				if code == 0 {
					code = services.ExitFailure
				}
				return services.WithExitCode(
					services.Wrap(services.ErrConfiguration, "preflight", failed.Name, failed.Detail, nil),
					code)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}
