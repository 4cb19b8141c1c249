package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nandanugg/station-gate/module/core/domain"
	"github.com/nandanugg/station-gate/module/core/internal/repository/database"
)

var _ database.GrantRepository = (*GrantRepo)(nil)

const DefaultSize = 10000

// GrantRepo keeps grants in a bounded LRU; the least recently touched device's
// grants are evicted first once size devices are held.
type GrantRepo struct {
	mu    sync.Mutex
	cache *lru.Cache[string, map[string]time.Time]
}

func NewGrantRepo(size int) (*GrantRepo, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, map[string]time.Time](size)
	if err != nil {
		return nil, err
	}
	return &GrantRepo{cache: cache}, nil
}

func (r *GrantRepo) Get(_ context.Context, deviceID, waypointID string) (time.Time, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	grants, ok := r.cache.Get(deviceID)
	if !ok {
		return time.Time{}, false, nil
	}
	at, ok := grants[waypointID]
	return at, ok, nil
}

func (r *GrantRepo) Upsert(_ context.Context, deviceID, waypointID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	grants, ok := r.cache.Get(deviceID)
	if !ok {
		grants = make(map[string]time.Time)
		r.cache.Add(deviceID, grants)
	}
	grants[waypointID] = at
	return nil
}

func (r *GrantRepo) ListByDevice(_ context.Context, deviceID string) ([]domain.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	grants, ok := r.cache.Peek(deviceID)
	if !ok {
		return nil, nil
	}
	results := make([]domain.Grant, 0, len(grants))
	for wp, at := range grants {
		results = append(results, domain.Grant{DeviceID: deviceID, WaypointID: wp, GrantedAt: at})
	}
	sort.Slice(results, func(i, j int) bool {
		return strings.Compare(results[i].WaypointID, results[j].WaypointID) < 0
	})
	return results, nil
}
