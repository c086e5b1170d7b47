package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joeblew999/plat-trees/internal/community"
	"github.com/joeblew999/plat-trees/internal/dataset"
	"github.com/joeblew999/plat-trees/internal/metrics"
)

// CommunitySource supplies community snapshots.
type CommunitySource interface {
	Snapshot(ctx context.Context) (community.Snapshot, error)
}

// DataService holds the latest loaded datasets and community snapshot.
type DataService struct {
	loader    dataset.Loader
	community CommunitySource

	mu       sync.RWMutex
	data     dataset.Datasets
	snap     community.Snapshot
	loaded   bool
	loadedAt time.Time
}

// NewDataService creates a data service. community may be nil.
func NewDataService(loader dataset.Loader, community CommunitySource) *DataService {
	return &DataService{
		loader:    loader,
		community: community,
		data:      dataset.Empty(),
	}
}

// Reload reads datasets and community status and replaces the current
// snapshot. On error the previous snapshot is kept.
func (s *DataService) Reload(ctx context.Context) error {
	start := time.Now()
	data, err := s.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading datasets: %w", err)
	}
	snap := community.NewSnapshot(nil)
	if s.community != nil {
		if snap, err = s.community.Snapshot(ctx); err != nil {
			return fmt.Errorf("loading community status: %w", err)
		}
	}

	trees, pumps, rain := data.Counts()
	metrics.DatasetLoadDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	metrics.DatasetFeatures.WithLabelValues("trees").Set(float64(trees))
	metrics.DatasetFeatures.WithLabelValues("pumps").Set(float64(pumps))
	metrics.DatasetFeatures.WithLabelValues("rain").Set(float64(rain))
	slog.Info("datasets loaded", "trees", trees, "pumps", pumps, "rain", rain, "community", snap.Len())

	s.mu.Lock()
	s.data, s.snap, s.loaded, s.loadedAt = data, snap, true, time.Now()
	s.mu.Unlock()
	return nil
}

// Current returns the latest snapshot and whether anything was loaded.
func (s *DataService) Current() (dataset.Datasets, community.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data, s.snap, s.loaded
}

// LoadedAt returns when the current snapshot was loaded.
func (s *DataService) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
