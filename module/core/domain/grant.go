package domain

import (
	"context"
	"time"
)

// GrantStore holds the last in-radius observation per waypoint for a single device.
type GrantStore interface {
	LastGrant(ctx context.Context, waypointID string) (time.Time, bool, error)
	RecordGrant(ctx context.Context, waypointID string, at time.Time) error
}

type Grant struct {
	DeviceID   string    `json:"device_id"`
	WaypointID string    `json:"waypoint_id"`
	GrantedAt  time.Time `json:"granted_at"`
}

// GrantStatus is a stored grant with its liveness derived against a reference time.
type GrantStatus struct {
	Grant
	Active    bool          `json:"active"`
	Elapsed   time.Duration `json:"elapsed"`
	Remaining time.Duration `json:"remaining"`
}
