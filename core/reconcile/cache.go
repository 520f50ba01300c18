package reconcile

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// RoleIndex caches a Directory listing (role name -> role ID).
type RoleIndex struct {
	directory Directory
	ttl       time.Duration
	now       func() time.Time

	mu     sync.RWMutex
	byName map[string]string
	byID   map[string]struct{}
	built  time.Time
	sf     singleflight.Group
}

// NewRoleIndex creates an index over directory. A zero ttl reloads on every lookup.
func NewRoleIndex(directory Directory, ttl time.Duration) *RoleIndex {
	return &RoleIndex{directory: directory, ttl: ttl, now: time.Now}
}

func (x *RoleIndex) isExpired() bool {
	if x.byName == nil || x.ttl == 0 {
		return true
	}
	return x.now().Sub(x.built) > x.ttl
}

// Resolve turns a role reference (ID or name) into a role ID.
func (x *RoleIndex) Resolve(ctx context.Context, ref string) (string, bool, error) {
	if err := x.load(ctx); err != nil {
		return "", false, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	if _, ok := x.byID[ref]; ok {
		return ref, true, nil
	}
	id, ok := x.byName[ref]
	return id, ok, nil
}

// load refreshes the listing when expired. Concurrent callers share one request.
func (x *RoleIndex) load(ctx context.Context) error {
	x.mu.RLock()
	fresh := !x.isExpired()
	x.mu.RUnlock()
	if fresh {
		return nil
	}

	_, err, _ := x.sf.Do("roles", func() (interface{}, error) {
		x.mu.RLock()
		fresh := !x.isExpired()
		x.mu.RUnlock()
		if fresh {
			return nil, nil
		}

		groups, err := x.directory.ListGroups(ctx)
		if err != nil {
			return nil, err
		}

		byID := make(map[string]struct{}, len(groups))
		for _, id := range groups {
			byID[id] = struct{}{}
		}

		x.mu.Lock()
		x.byName = groups
		x.byID = byID
		x.built = x.now()
		x.mu.Unlock()
		return nil, nil
	})
	return err
}

// Invalidate forces the next lookup to reload the listing.
func (x *RoleIndex) Invalidate() {
	x.mu.Lock()
	x.byName = nil
	x.byID = nil
	x.mu.Unlock()
}
