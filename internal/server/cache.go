package server

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/naka-gawa/github-dashboard/internal/usecase"
)

// snapshotCache keeps the raw repository and organization lists per login.
// Derived dashboards are never cached; they are recomputed from the
// snapshot on every request. A nil cache stores nothing.
type snapshotCache struct {
	c *gocache.Cache
}

func newSnapshotCache(ttl time.Duration) *snapshotCache {
	if ttl <= 0 {
		return nil
	}
	return &snapshotCache{c: gocache.New(ttl, 2*ttl)}
}

func (s *snapshotCache) get(login string) (usecase.Snapshot, bool) {
	if s == nil {
		return usecase.Snapshot{}, false
	}
	v, ok := s.c.Get(login)
	if !ok {
		return usecase.Snapshot{}, false
	}
	snap, ok := v.(usecase.Snapshot)
	return snap, ok
}

func (s *snapshotCache) set(login string, snap usecase.Snapshot) {
	if s == nil {
		return
	}
	s.c.SetDefault(login, snap)
}
