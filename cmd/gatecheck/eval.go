package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nandanugg/station-gate/module/core/domain"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate access from a position fix",
	RunE:  runEval,
}

func init() {
	f := evalCmd.Flags()
	f.Float64("lat", 0, "latitude in degrees")
	f.Float64("lng", 0, "longitude in degrees")
	f.Float64("accuracy", 0, "fix accuracy in metres")
	f.Bool("json", false, "print the full evaluation as JSON")
	_ = evalCmd.MarkFlagRequired("lat")
	_ = evalCmd.MarkFlagRequired("lng")

	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	lat, _ := f.GetFloat64("lat")
	lng, _ := f.GetFloat64("lng")
	accuracy, _ := f.GetFloat64("accuracy")
	asJSON, _ := f.GetBool("json")
	device, _ := f.GetString("device")

	eval, err := accessSvc.Check(cmd.Context(), device, domain.Position{Lat: lat, Lon: lng, Accuracy: accuracy})
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	zap.L().Debug("evaluated",
		zap.String("device", device),
		zap.Bool("accessible", eval.Aggregate.Accessible),
		zap.Strings("in_radius", eval.InRadius()),
	)

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(eval)
	}

	for _, d := range eval.Decisions {
		fmt.Fprintf(out, "%-12s %8.2f km  %s\n", d.WaypointID, d.DistanceKm, d.Reason)
	}
	fmt.Fprintf(out, "\n%s\n", eval.Aggregate.Message)
	return nil
}
