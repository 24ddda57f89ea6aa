package ecs

import (
	"sort"
	"time"
)

// Stats is a snapshot of a manager's bookkeeping.
type Stats struct {
	Frame          uint64
	EntityCount    int
	PendingAdds    int
	PendingRemoves int

	ComponentTypeCount int
	Buckets            []BucketStats

	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
}

// BucketStats describes one reverse index bucket.
type BucketStats struct {
	Type        string
	EntityCount int
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	Enabled        bool
	Initialized    bool
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

// CollectStats gathers entity, index and system statistics.
func (m *Manager) CollectStats() *Stats {
	adds, removes := m.pending.PendingEntities()
	stats := &Stats{
		Frame:              m.frame,
		EntityCount:        len(m.entities),
		PendingAdds:        adds,
		PendingRemoves:     removes,
		ComponentTypeCount: len(m.index),
		Buckets:            make([]BucketStats, 0, len(m.index)),
		SystemCount:        len(m.systems),
		Systems:            make([]SystemStats, len(m.systems)),
	}

	for t, b := range m.index {
		stats.Buckets = append(stats.Buckets, BucketStats{
			Type:        t.String(),
			EntityCount: b.Len(),
		})
	}
	sort.Slice(stats.Buckets, func(i, j int) bool {
		return stats.Buckets[i].Type < stats.Buckets[j].Type
	})

	for i, entry := range m.systems {
		internal := entry.stats
		avgDuration := time.Duration(0)
		minDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
			minDuration = internal.minDuration
		}

		stats.Systems[i] = SystemStats{
			Name:           entry.name,
			Enabled:        systemEnabled(entry.system),
			Initialized:    entry.initialized,
			ExecutionCount: internal.executionCount,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		stats.TotalExecutions += internal.executionCount
	}

	return stats
}
