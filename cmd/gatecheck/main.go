package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nandanugg/station-gate/config"
	"github.com/nandanugg/station-gate/module/core"
	"github.com/nandanugg/station-gate/module/core/service"
)

var (
	cfg       *config.Config
	accessSvc *service.AccessService
)

var rootCmd = &cobra.Command{
	Use:          "gatecheck",
	Short:        "Device-local station access check",
	Long:         "Evaluates station access for one device, persisting grants to a local JSON file.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		f := cmd.Flags()
		if f.Changed("radius") {
			cfg.RadiusKm, _ = f.GetFloat64("radius")
		}
		if f.Changed("window") {
			cfg.GrantWindow, _ = f.GetDuration("window")
		}
		if f.Changed("waypoints") {
			cfg.WaypointsFile, _ = f.GetString("waypoints")
		}
		if f.Changed("log-level") {
			cfg.LogLevel, _ = f.GetString("log-level")
		}

		if _, err := config.NewLogger(cfg.LogLevel, "console"); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		waypoints, err := config.LoadWaypoints(cfg.WaypointsFile)
		if err != nil {
			return err
		}

		store, _ := f.GetString("store")
		accessSvc, err = core.BuildLocal(store, service.Settings{
			Waypoints:   waypoints,
			RadiusKm:    cfg.RadiusKm,
			GrantWindow: cfg.GrantWindow,
		})
		return err
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("store", "gate_grants.json", "grant store file")
	f.String("device", "local", "device id the grants belong to")
	f.String("waypoints", "", "waypoint YAML file (default: built-in stations)")
	f.Float64("radius", 10, "access radius in km (overrides ACCESS_RADIUS_KM)")
	f.Duration("window", 0, "grant window (overrides GRANT_WINDOW)")
	f.String("log-level", "warn", "log level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
