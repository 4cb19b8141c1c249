package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/nandanugg/station-gate/module/core/domain"
	"github.com/nandanugg/station-gate/module/core/internal/repository/database"
)

var _ database.GrantRepository = (*GrantRepo)(nil)

// Schema expected by GrantRepo.
const Schema = `CREATE TABLE IF NOT EXISTS access_grants (
	device_id   TEXT        NOT NULL,
	waypoint_id TEXT        NOT NULL,
	granted_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (device_id, waypoint_id)
)`

type GrantRepo struct {
	db *sql.DB
}

func NewGrantRepo(db *sql.DB) *GrantRepo {
	return &GrantRepo{db: db}
}

func (r *GrantRepo) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, Schema)
	return err
}

func (r *GrantRepo) Get(ctx context.Context, deviceID, waypointID string) (time.Time, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT granted_at FROM access_grants WHERE device_id = $1 AND waypoint_id = $2`,
		deviceID, waypointID,
	)

	var at time.Time
	if err := row.Scan(&at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return at, true, nil
}

// Upsert overwrites the grant; timestamps are never merged.
func (r *GrantRepo) Upsert(ctx context.Context, deviceID, waypointID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_grants (device_id, waypoint_id, granted_at) VALUES ($1, $2, $3)
		ON CONFLICT (device_id, waypoint_id) DO UPDATE SET granted_at = EXCLUDED.granted_at`,
		deviceID, waypointID, at,
	)
	return err
}

func (r *GrantRepo) ListByDevice(ctx context.Context, deviceID string) ([]domain.Grant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT device_id, waypoint_id, granted_at FROM access_grants WHERE device_id = $1 ORDER BY waypoint_id`,
		deviceID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Grant
	for rows.Next() {
		var g domain.Grant
		if err := rows.Scan(&g.DeviceID, &g.WaypointID, &g.GrantedAt); err != nil {
			return nil, err
		}
		results = append(results, g)
	}
	return results, rows.Err()
}
