package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nandanugg/station-gate/module/core/domain"
)

// Evaluate decides, for every waypoint in order, whether the device at pos may
// access the application, and aggregates the result.
//
// Evaluate is not a query: each waypoint found within radiusKm has its grant
// overwritten to now in store before the next waypoint is considered.
func Evaluate(
	ctx context.Context,
	pos domain.Position,
	waypoints []domain.Waypoint,
	radiusKm float64,
	grantWindow time.Duration,
	store domain.GrantStore,
	now time.Time,
) (*domain.Evaluation, error) {
	if err := pos.Validate(); err != nil {
		return nil, err
	}
	if err := validateParams(waypoints, radiusKm, grantWindow); err != nil {
		return nil, err
	}

	eval := &domain.Evaluation{
		EvaluatedAt: now,
		Position:    pos,
		Decisions:   make([]domain.Decision, 0, len(waypoints)),
		ByWaypoint:  make(map[string]domain.Decision, len(waypoints)),
	}

	nearest := -1
	for i, wp := range waypoints {
		dist := DistanceKm(pos.Lat, pos.Lon, wp.Lat, wp.Lon)

		d, err := decide(ctx, wp, dist, radiusKm, grantWindow, store, now)
		if err != nil {
			return nil, err
		}
		eval.Decisions = append(eval.Decisions, d)
		eval.ByWaypoint[wp.ID] = d

		if d.CanAccess {
			eval.Aggregate.Accessible = true
		}
		if nearest < 0 || dist < eval.Decisions[nearest].DistanceKm {
			nearest = i
		}
	}

	eval.Aggregate.Nearest = domain.Nearest{
		WaypointID: waypoints[nearest].ID,
		Name:       waypoints[nearest].Name,
		DistanceKm: eval.Decisions[nearest].DistanceKm,
	}
	eval.Aggregate.Message = composeMessage(eval, waypoints, radiusKm)
	return eval, nil
}

func decide(
	ctx context.Context,
	wp domain.Waypoint,
	dist, radiusKm float64,
	grantWindow time.Duration,
	store domain.GrantStore,
	now time.Time,
) (domain.Decision, error) {
	d := domain.Decision{
		WaypointID:   wp.ID,
		DistanceKm:   dist,
		WithinRadius: dist <= radiusKm,
	}

	if d.WithinRadius {
		if err := store.RecordGrant(ctx, wp.ID, now); err != nil {
			return d, fmt.Errorf("record grant %s: %w", wp.ID, err)
		}
		d.CanAccess = true
		d.Reason = domain.ReasonInRadius
		d.TimeInfo = "現在エリア内"
		return d, nil
	}

	grantedAt, ok, err := store.LastGrant(ctx, wp.ID)
	if err != nil {
		return d, fmt.Errorf("last grant %s: %w", wp.ID, err)
	}
	if !ok {
		d.Reason = domain.ReasonNeverGranted
		d.TimeInfo = "未アクセス"
		return d, nil
	}

	elapsed := now.Sub(grantedAt)
	d.Elapsed = &elapsed
	if elapsed <= grantWindow {
		remaining := grantWindow - elapsed
		d.Remaining = &remaining
		d.CanAccess = true
		d.Reason = domain.ReasonRecentGrant
		d.TimeInfo = fmt.Sprintf("前回から%s経過 (残り%d時間有効)", FormatElapsed(elapsed), remainingHours(remaining))
		return d, nil
	}

	d.Reason = domain.ReasonGrantExpired
	d.TimeInfo = fmt.Sprintf("前回から%s経過 (期限切れ)", FormatElapsed(elapsed))
	return d, nil
}

func validateParams(waypoints []domain.Waypoint, radiusKm float64, grantWindow time.Duration) error {
	if len(waypoints) == 0 {
		return domain.ErrNoWaypoints
	}
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm <= 0 {
		return fmt.Errorf("%w: radius must be a positive number of km", domain.ErrInvalidConfig)
	}
	if grantWindow <= 0 {
		return fmt.Errorf("%w: grant window must be positive", domain.ErrInvalidConfig)
	}
	return ValidateWaypoints(waypoints)
}

// ValidateWaypoints checks a configured waypoint list: non-empty, unique
// non-empty IDs, coordinates in range.
func ValidateWaypoints(waypoints []domain.Waypoint) error {
	if len(waypoints) == 0 {
		return domain.ErrNoWaypoints
	}
	seen := make(map[string]struct{}, len(waypoints))
	for i, wp := range waypoints {
		if wp.ID == "" {
			return fmt.Errorf("%w: waypoint %d: id required", domain.ErrInvalidConfig, i)
		}
		if _, dup := seen[wp.ID]; dup {
			return fmt.Errorf("%w: waypoint %q: duplicate id", domain.ErrInvalidConfig, wp.ID)
		}
		seen[wp.ID] = struct{}{}
		if err := (domain.Position{Lat: wp.Lat, Lon: wp.Lon}).Validate(); err != nil {
			return fmt.Errorf("%w: waypoint %q: coordinates out of range", domain.ErrInvalidConfig, wp.ID)
		}
	}
	return nil
}

func composeMessage(eval *domain.Evaluation, waypoints []domain.Waypoint, radiusKm float64) string {
	radius := strconv.FormatFloat(radiusKm, 'f', -1, 64)
	var b strings.Builder

	if eval.Aggregate.Accessible {
		var near, accessible []string
		for i, d := range eval.Decisions {
			if !d.CanAccess {
				continue
			}
			accessible = append(accessible, waypoints[i].Label())
			if d.WithinRadius {
				near = append(near, waypoints[i].Label())
			}
		}

		b.WriteString("✅ アプリにアクセス可能です！\n\n")
		if len(near) > 0 {
			fmt.Fprintf(&b, "現在地: %sの%skm圏内\n", strings.Join(near, "・"), radius)
		}
		fmt.Fprintf(&b, "アクセス可能駅: %s\n\n", strings.Join(accessible, "・"))
		writeDetails(&b, eval.Decisions, waypoints)
		return b.String()
	}

	fmt.Fprintf(&b, "⚠️ アプリにアクセスできません\n\n最寄り駅: %s（%.2fkm）\n\n",
		eval.Aggregate.Nearest.Name, eval.Aggregate.Nearest.DistanceKm)
	writeDetails(&b, eval.Decisions, waypoints)
	fmt.Fprintf(&b, "\n駅周辺%skm圏内でのみアプリをご利用いただけます。", radius)
	return b.String()
}

func writeDetails(b *strings.Builder, decisions []domain.Decision, waypoints []domain.Waypoint) {
	for i, d := range decisions {
		status := "❌"
		if d.CanAccess {
			status = "✅"
		}
		where := "(圏外)"
		if d.WithinRadius {
			where = "(圏内)"
		}
		fmt.Fprintf(b, "%s %s%s: %s\n", status, waypoints[i].Label(), where, d.TimeInfo)
	}
}
