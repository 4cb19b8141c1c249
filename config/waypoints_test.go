package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandanugg/station-gate/module/core/domain"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "waypoints.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadWaypointsDefault(t *testing.T) {
	wps, err := LoadWaypoints("")
	require.NoError(t, err)
	assert.Equal(t, DefaultWaypoints, wps)

	wps[0].Name = "changed"
	assert.Equal(t, "JR京都駅", DefaultWaypoints[0].Name)
}

func TestLoadWaypointsFile(t *testing.T) {
	path := writeFile(t, `
waypoints:
  - id: umeda
    name: JR大阪駅
    short_name: 大阪駅
    latitude: 34.702485
    longitude: 135.495951
  - id: sannomiya
    name: JR三ノ宮駅
    latitude: 34.694657
    longitude: 135.194867
`)

	wps, err := LoadWaypoints(path)
	require.NoError(t, err)
	require.Len(t, wps, 2)
	assert.Equal(t, "umeda", wps[0].ID)
	assert.Equal(t, "大阪駅", wps[0].Label())
	assert.Equal(t, "JR三ノ宮駅", wps[1].Label())
	assert.InDelta(t, 135.194867, wps[1].Lon, 1e-9)
}

func TestLoadWaypointsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"empty list", "waypoints: []\n", domain.ErrNoWaypoints},
		{"missing id", "waypoints:\n  - name: x\n    latitude: 1\n    longitude: 1\n", domain.ErrInvalidConfig},
		{"duplicate id", "waypoints:\n  - id: a\n    latitude: 1\n    longitude: 1\n  - id: a\n    latitude: 2\n    longitude: 2\n", domain.ErrInvalidConfig},
		{"out of range", "waypoints:\n  - id: a\n    latitude: 100\n    longitude: 1\n", domain.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWaypoints(writeFile(t, tt.body))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadWaypointsBadYAML(t *testing.T) {
	_, err := LoadWaypoints(writeFile(t, "waypoints: [unterminated"))
	assert.Error(t, err)
}

func TestLoadWaypointsMissingFile(t *testing.T) {
	_, err := LoadWaypoints(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
