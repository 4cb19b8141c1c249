package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nandanugg/station-gate/module/core/domain"
	"github.com/nandanugg/station-gate/module/core/service"
)

// DefaultWaypoints is the Kansai station set used when no waypoint file is given.
var DefaultWaypoints = []domain.Waypoint{
	{ID: "kyoto", Name: "JR京都駅", ShortName: "京都駅", Lat: 34.985849, Lon: 135.758767},
	{ID: "osaka", Name: "JR新大阪駅", ShortName: "新大阪駅", Lat: 34.733141, Lon: 135.500107},
	{ID: "kobe", Name: "JR神戸駅", ShortName: "神戸駅", Lat: 34.669029, Lon: 135.194992},
}

type waypointFile struct {
	Waypoints []domain.Waypoint `yaml:"waypoints"`
}

// LoadWaypoints reads the waypoint list from a YAML file. An empty path returns
// a copy of DefaultWaypoints.
func LoadWaypoints(path string) ([]domain.Waypoint, error) {
	if path == "" {
		return append([]domain.Waypoint(nil), DefaultWaypoints...), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read waypoints %s: %w", path, err)
	}

	var f waypointFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse waypoints %s: %w", path, err)
	}
	if err := service.ValidateWaypoints(f.Waypoints); err != nil {
		return nil, fmt.Errorf("waypoints %s: %w", path, err)
	}
	return f.Waypoints, nil
}
