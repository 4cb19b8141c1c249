package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandanugg/station-gate/module/core/domain"
)

var kansai = []domain.Waypoint{
	{ID: "kyoto", Name: "JR京都駅", ShortName: "京都駅", Lat: 34.985849, Lon: 135.758767},
	{ID: "osaka", Name: "JR新大阪駅", ShortName: "新大阪駅", Lat: 34.733141, Lon: 135.500107},
	{ID: "kobe", Name: "JR神戸駅", ShortName: "神戸駅", Lat: 34.669029, Lon: 135.194992},
}

var (
	atKyoto = domain.Position{Lat: 34.985849, Lon: 135.758767, Accuracy: 10}
	atNara  = domain.Position{Lat: 34.6851, Lon: 135.8049, Accuracy: 10}
	now     = time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
)

const window = 24 * time.Hour

type memStore struct {
	grants  map[string]time.Time
	writes  []string
	getErr  error
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{grants: map[string]time.Time{}}
}

func (m *memStore) LastGrant(_ context.Context, waypointID string) (time.Time, bool, error) {
	if m.getErr != nil {
		return time.Time{}, false, m.getErr
	}
	at, ok := m.grants[waypointID]
	return at, ok, nil
}

func (m *memStore) RecordGrant(_ context.Context, waypointID string, at time.Time) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.writes = append(m.writes, waypointID)
	m.grants[waypointID] = at
	return nil
}

func TestEvaluate_InRadiusRefreshesGrant(t *testing.T) {
	store := newMemStore()
	store.grants["kyoto"] = now.Add(-30 * time.Hour)

	eval, err := Evaluate(context.Background(), atKyoto, kansai, 10, window, store, now)
	require.NoError(t, err)

	d := eval.ByWaypoint["kyoto"]
	assert.True(t, d.WithinRadius)
	assert.True(t, d.CanAccess)
	assert.Equal(t, domain.ReasonInRadius, d.Reason)
	assert.Nil(t, d.Elapsed)
	assert.Nil(t, d.Remaining)
	assert.Equal(t, "現在エリア内", d.TimeInfo)
	assert.Equal(t, now, store.grants["kyoto"])
	assert.Equal(t, []string{"kyoto"}, store.writes)

	assert.True(t, eval.Aggregate.Accessible)
	assert.Equal(t, "kyoto", eval.Aggregate.Nearest.WaypointID)
	assert.Equal(t, []string{"kyoto"}, eval.InRadius())
}

func TestEvaluate_GrantWindowBoundary(t *testing.T) {
	tests := []struct {
		name   string
		age    time.Duration
		access bool
		reason domain.AccessReason
	}{
		{"just inside window", window - time.Millisecond, true, domain.ReasonRecentGrant},
		{"exactly window", window, true, domain.ReasonRecentGrant},
		{"just past window", window + time.Millisecond, false, domain.ReasonGrantExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.grants["osaka"] = now.Add(-tt.age)

			eval, err := Evaluate(context.Background(), atNara, kansai, 10, window, store, now)
			require.NoError(t, err)

			d := eval.ByWaypoint["osaka"]
			assert.False(t, d.WithinRadius)
			assert.Equal(t, tt.access, d.CanAccess)
			assert.Equal(t, tt.reason, d.Reason)
			require.NotNil(t, d.Elapsed)
			assert.Equal(t, tt.age, *d.Elapsed)
			if tt.access {
				require.NotNil(t, d.Remaining)
				assert.Equal(t, window-tt.age, *d.Remaining)
			} else {
				assert.Nil(t, d.Remaining)
			}
			assert.Equal(t, tt.access, eval.Aggregate.Accessible)
			assert.Empty(t, store.writes)
		})
	}
}

func TestEvaluate_NeverGranted(t *testing.T) {
	store := newMemStore()

	eval, err := Evaluate(context.Background(), atNara, kansai, 10, window, store, now)
	require.NoError(t, err)

	for _, d := range eval.Decisions {
		assert.False(t, d.CanAccess)
		assert.Equal(t, domain.ReasonNeverGranted, d.Reason)
		assert.Equal(t, "未アクセス", d.TimeInfo)
	}
	assert.False(t, eval.Aggregate.Accessible)
	assert.Equal(t, "osaka", eval.Aggregate.Nearest.WaypointID)
	assert.InDelta(t, 28.43, eval.Aggregate.Nearest.DistanceKm, 0.01)
	assert.Empty(t, eval.InRadius())
}

func TestEvaluate_DecisionsFollowWaypointOrder(t *testing.T) {
	eval, err := Evaluate(context.Background(), atNara, kansai, 10, window, newMemStore(), now)
	require.NoError(t, err)

	require.Len(t, eval.Decisions, len(kansai))
	for i, wp := range kansai {
		assert.Equal(t, wp.ID, eval.Decisions[i].WaypointID)
	}
}

func TestEvaluate_NearestTieBreaksOnFirst(t *testing.T) {
	twins := []domain.Waypoint{
		{ID: "far", Name: "Far", Lat: 36.0, Lon: 136.0},
		{ID: "first", Name: "First", Lat: 35.3, Lon: 135.75},
		{ID: "second", Name: "Second", Lat: 35.3, Lon: 135.75},
	}
	pos := domain.Position{Lat: 35.0, Lon: 135.75}

	eval, err := Evaluate(context.Background(), pos, twins, 1, window, newMemStore(), now)
	require.NoError(t, err)
	assert.Equal(t, "first", eval.Aggregate.Nearest.WaypointID)
}

func TestEvaluate_AnyActiveGrantIsEnough(t *testing.T) {
	store := newMemStore()
	store.grants["kyoto"] = now.Add(-48 * time.Hour)
	store.grants["kobe"] = now.Add(-2 * time.Hour)

	eval, err := Evaluate(context.Background(), atNara, kansai, 10, window, store, now)
	require.NoError(t, err)

	assert.False(t, eval.ByWaypoint["kyoto"].CanAccess)
	assert.True(t, eval.ByWaypoint["kobe"].CanAccess)
	assert.True(t, eval.Aggregate.Accessible)
}

func TestEvaluate_RadiusIsConfigurable(t *testing.T) {
	// 34.86,135.63 sits about 18km from both Kyoto and Shin-Osaka.
	pos := domain.Position{Lat: 34.86, Lon: 135.63}

	eval, err := Evaluate(context.Background(), pos, kansai, 10, window, newMemStore(), now)
	require.NoError(t, err)
	assert.False(t, eval.Aggregate.Accessible)

	store := newMemStore()
	eval, err = Evaluate(context.Background(), pos, kansai, 20, window, store, now)
	require.NoError(t, err)
	assert.True(t, eval.Aggregate.Accessible)
	assert.Equal(t, []string{"kyoto", "osaka"}, eval.InRadius())
	assert.Equal(t, []string{"kyoto", "osaka"}, store.writes)
}

func TestEvaluate_InvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		pos       domain.Position
		waypoints []domain.Waypoint
		radius    float64
		window    time.Duration
		want      error
	}{
		{"nan latitude", domain.Position{Lat: math.NaN(), Lon: 135}, kansai, 10, window, domain.ErrInvalidPosition},
		{"inf longitude", domain.Position{Lat: 35, Lon: math.Inf(1)}, kansai, 10, window, domain.ErrInvalidPosition},
		{"latitude out of range", domain.Position{Lat: 91, Lon: 135}, kansai, 10, window, domain.ErrInvalidPosition},
		{"no waypoints", atKyoto, nil, 10, window, domain.ErrNoWaypoints},
		{"zero radius", atKyoto, kansai, 0, window, domain.ErrInvalidConfig},
		{"nan radius", atKyoto, kansai, math.NaN(), window, domain.ErrInvalidConfig},
		{"zero window", atKyoto, kansai, 10, 0, domain.ErrInvalidConfig},
		{"duplicate ids", atKyoto, []domain.Waypoint{kansai[0], kansai[0]}, 10, window, domain.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			_, err := Evaluate(context.Background(), tt.pos, tt.waypoints, tt.radius, tt.window, store, now)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, store.writes)
		})
	}
}

func TestEvaluate_StoreErrors(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	_, err := Evaluate(context.Background(), atKyoto, kansai, 10, window, store, now)
	assert.ErrorIs(t, err, store.saveErr)

	store = newMemStore()
	store.getErr = errors.New("db down")
	_, err = Evaluate(context.Background(), atNara, kansai, 10, window, store, now)
	assert.ErrorIs(t, err, store.getErr)
}

func TestEvaluate_MessageDenied(t *testing.T) {
	store := newMemStore()
	store.grants["kyoto"] = now.Add(-(25*time.Hour + 30*time.Minute))

	eval, err := Evaluate(context.Background(), atNara, kansai, 10, window, store, now)
	require.NoError(t, err)

	want := "⚠️ アプリにアクセスできません\n\n" +
		"最寄り駅: JR新大阪駅（28.43km）\n\n" +
		"❌ 京都駅(圏外): 前回から1日1時間経過 (期限切れ)\n" +
		"❌ 新大阪駅(圏外): 未アクセス\n" +
		"❌ 神戸駅(圏外): 未アクセス\n" +
		"\n駅周辺10km圏内でのみアプリをご利用いただけます。"
	assert.Equal(t, want, eval.Aggregate.Message)
}

func TestEvaluate_MessageAccessible(t *testing.T) {
	store := newMemStore()
	store.grants["kobe"] = now.Add(-(3*time.Hour + 15*time.Minute))

	eval, err := Evaluate(context.Background(), atKyoto, kansai, 1.5, window, store, now)
	require.NoError(t, err)

	want := "✅ アプリにアクセス可能です！\n\n" +
		"現在地: 京都駅の1.5km圏内\n" +
		"アクセス可能駅: 京都駅・神戸駅\n\n" +
		"✅ 京都駅(圏内): 現在エリア内\n" +
		"❌ 新大阪駅(圏外): 未アクセス\n" +
		"✅ 神戸駅(圏外): 前回から3時間15分経過 (残り21時間有効)\n"
	assert.Equal(t, want, eval.Aggregate.Message)
}

func TestEvaluate_MessageAccessibleByGrantOnly(t *testing.T) {
	store := newMemStore()
	store.grants["osaka"] = now.Add(-90 * time.Second)

	eval, err := Evaluate(context.Background(), atNara, kansai, 10, window, store, now)
	require.NoError(t, err)

	assert.NotContains(t, eval.Aggregate.Message, "現在地")
	assert.Contains(t, eval.Aggregate.Message, "アクセス可能駅: 新大阪駅\n")
	assert.Contains(t, eval.Aggregate.Message, "前回から1分30秒経過 (残り24時間有効)")
}

func TestEvaluate_LabelFallsBackToName(t *testing.T) {
	wps := []domain.Waypoint{{ID: "venue", Name: "Main Hall", Lat: 35.0, Lon: 135.0}}

	eval, err := Evaluate(context.Background(), domain.Position{Lat: 35.0, Lon: 135.0}, wps, 1, window, newMemStore(), now)
	require.NoError(t, err)
	assert.Contains(t, eval.Aggregate.Message, "✅ Main Hall(圏内): 現在エリア内")
}
