package domain

import "time"

type AccessReason string

const (
	ReasonInRadius     AccessReason = "in-radius"
	ReasonRecentGrant  AccessReason = "recent-grant"
	ReasonGrantExpired AccessReason = "grant-expired"
	ReasonNeverGranted AccessReason = "never-granted"
)

// Decision is the access outcome for one waypoint in one evaluation.
// Elapsed and Remaining are nil when they do not apply to the reason.
type Decision struct {
	WaypointID   string         `json:"waypoint_id"`
	DistanceKm   float64        `json:"distance_km"`
	WithinRadius bool           `json:"within_radius"`
	CanAccess    bool           `json:"can_access"`
	Reason       AccessReason   `json:"reason"`
	Elapsed      *time.Duration `json:"elapsed,omitempty"`
	Remaining    *time.Duration `json:"remaining,omitempty"`
	TimeInfo     string         `json:"time_info"`
}

type Nearest struct {
	WaypointID string  `json:"waypoint_id"`
	Name       string  `json:"name"`
	DistanceKm float64 `json:"distance_km"`
}

type Aggregate struct {
	Accessible bool    `json:"accessible"`
	Nearest    Nearest `json:"nearest"`
	Message    string  `json:"message"`
}

// Evaluation is the result of one evaluation cycle. Decisions follow waypoint order.
type Evaluation struct {
	EvaluatedAt time.Time           `json:"evaluated_at"`
	Position    Position            `json:"position"`
	Decisions   []Decision          `json:"decisions"`
	ByWaypoint  map[string]Decision `json:"-"`
	Aggregate   Aggregate           `json:"aggregate"`
}

// InRadius returns the IDs of waypoints the position was within.
func (e *Evaluation) InRadius() []string {
	var ids []string
	for _, d := range e.Decisions {
		if d.WithinRadius {
			ids = append(ids, d.WaypointID)
		}
	}
	return ids
}
