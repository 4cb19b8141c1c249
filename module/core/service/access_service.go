package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nandanugg/station-gate/module/core/domain"
	"github.com/nandanugg/station-gate/module/core/internal/repository/database"
	"github.com/nandanugg/station-gate/module/core/internal/repository/publisher"
)

type Settings struct {
	Waypoints   []domain.Waypoint
	RadiusKm    float64
	GrantWindow time.Duration
}

type AccessService struct {
	repo      database.GrantRepository
	publisher publisher.AccessPublisher
	settings  Settings
	now       func() time.Time
}

type Option func(*AccessService)

// WithClock overrides the time source used as "now" for every evaluation.
func WithClock(now func() time.Time) Option {
	return func(s *AccessService) { s.now = now }
}

func NewAccessService(repo database.GrantRepository, pub publisher.AccessPublisher, settings Settings, opts ...Option) *AccessService {
	s := &AccessService{
		repo:      repo,
		publisher: pub,
		settings:  settings,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AccessService) Waypoints() []domain.Waypoint {
	return s.settings.Waypoints
}

// Check evaluates pos for deviceID against the device's own grants and
// publishes the outcome. A failed publish is logged, not returned: grants are
// already written by then.
func (s *AccessService) Check(ctx context.Context, deviceID string, pos domain.Position) (*domain.Evaluation, error) {
	store := deviceGrants{repo: s.repo, deviceID: deviceID}

	eval, err := Evaluate(ctx, pos, s.settings.Waypoints, s.settings.RadiusKm, s.settings.GrantWindow, store, s.now())
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		event := &domain.AccessEvent{
			DeviceID:  deviceID,
			Event:     domain.AccessDenied,
			Position:  pos,
			Nearest:   eval.Aggregate.Nearest,
			InRadius:  eval.InRadius(),
			Timestamp: eval.EvaluatedAt.Unix(),
		}
		if eval.Aggregate.Accessible {
			event.Event = domain.AccessGranted
		}
		if err := s.publisher.PublishAccess(ctx, event); err != nil {
			zap.L().Warn("publish access event failed",
				zap.String("device_id", deviceID),
				zap.String("event", string(event.Event)),
				zap.Error(err),
			)
		}
	}

	return eval, nil
}

// Grants lists the stored grants for deviceID with liveness derived against now.
// Expired grants are kept and reported.
func (s *AccessService) Grants(ctx context.Context, deviceID string) ([]domain.GrantStatus, error) {
	grants, err := s.repo.ListByDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	results := make([]domain.GrantStatus, len(grants))
	for i, g := range grants {
		elapsed := now.Sub(g.GrantedAt)
		st := domain.GrantStatus{Grant: g, Elapsed: elapsed}
		if elapsed <= s.settings.GrantWindow {
			st.Active = true
			st.Remaining = s.settings.GrantWindow - elapsed
		}
		results[i] = st
	}
	return results, nil
}

// deviceGrants scopes a GrantRepository to a single device.
type deviceGrants struct {
	repo     database.GrantRepository
	deviceID string
}

func (d deviceGrants) LastGrant(ctx context.Context, waypointID string) (time.Time, bool, error) {
	return d.repo.Get(ctx, d.deviceID, waypointID)
}

func (d deviceGrants) RecordGrant(ctx context.Context, waypointID string, at time.Time) error {
	return d.repo.Upsert(ctx, d.deviceID, waypointID, at)
}
