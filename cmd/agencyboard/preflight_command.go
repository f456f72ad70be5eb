package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"agencyboard/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check directories, database, and outbound services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, !offline)
			out := cmd.OutOrStdout()
			lines, ok := preflightLines(results, shouldColorize(out))
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			if !ok {
				return errors.New("preflight failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip network probes")
	return cmd
}
