package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/nandanugg/station-gate/module/core/domain"
	"github.com/nandanugg/station-gate/module/core/internal/repository/database"
)

var _ database.GrantRepository = (*GrantRepo)(nil)

// grantFile maps device -> waypoint -> epoch milliseconds.
type grantFile map[string]map[string]int64

// GrantRepo persists grants to a single JSON file, rewritten on every upsert.
type GrantRepo struct {
	mu   sync.Mutex
	path string
}

func NewGrantRepo(path string) *GrantRepo {
	return &GrantRepo{path: path}
}

func (r *GrantRepo) Get(_ context.Context, deviceID, waypointID string) (time.Time, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return time.Time{}, false, err
	}
	ms, ok := data[deviceID][waypointID]
	if !ok {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

func (r *GrantRepo) Upsert(_ context.Context, deviceID, waypointID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return err
	}
	if data[deviceID] == nil {
		data[deviceID] = make(map[string]int64)
	}
	data[deviceID][waypointID] = at.UnixMilli()
	return r.save(data)
}

func (r *GrantRepo) ListByDevice(_ context.Context, deviceID string) ([]domain.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.load()
	if err != nil {
		return nil, err
	}
	var results []domain.Grant
	for wp, ms := range data[deviceID] {
		results = append(results, domain.Grant{DeviceID: deviceID, WaypointID: wp, GrantedAt: time.UnixMilli(ms)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].WaypointID < results[j].WaypointID })
	return results, nil
}

func (r *GrantRepo) load() (grantFile, error) {
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return grantFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	data := grantFile{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	return data, nil
}

// save writes to a temp file and renames it over the target.
func (r *GrantRepo) save(data grantFile) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode grants: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, r.path)
}
