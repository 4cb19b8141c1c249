package database

import (
	"context"
	"time"

	"github.com/nandanugg/station-gate/module/core/domain"
)

type GrantRepository interface {
	Get(ctx context.Context, deviceID, waypointID string) (time.Time, bool, error)
	Upsert(ctx context.Context, deviceID, waypointID string, at time.Time) error
	ListByDevice(ctx context.Context, deviceID string) ([]domain.Grant, error)
}
