package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nandanugg/station-gate/module/core/service"
)

var grantsCmd = &cobra.Command{
	Use:   "grants",
	Short: "List stored grants and whether they are still active",
	RunE: func(cmd *cobra.Command, _ []string) error {
		device, _ := cmd.Flags().GetString("device")

		grants, err := accessSvc.Grants(cmd.Context(), device)
		if err != nil {
			return fmt.Errorf("list grants: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(grants) == 0 {
			fmt.Fprintln(out, "no grants")
			return nil
		}
		for _, g := range grants {
			status := "expired"
			if g.Active {
				status = "active"
			}
			fmt.Fprintf(out, "%-12s %-8s %s経過\n", g.WaypointID, status, service.FormatElapsed(g.Elapsed))
		}
		return nil
	},
}

func init() { rootCmd.AddCommand(grantsCmd) }
