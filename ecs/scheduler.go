package ecs

import (
	"context"
	"reflect"
	"slices"
	"time"

	"go.uber.org/zap"
)

type systemStatsInternal struct {
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func (s *systemStatsInternal) record(duration time.Duration) {
	s.executionCount++
	s.lastDuration = duration
	s.totalDuration += duration

	if duration < s.minDuration {
		s.minDuration = duration
	}
	if duration > s.maxDuration {
		s.maxDuration = duration
	}
}

type systemEntry struct {
	system      System
	name        string
	initialized bool
	stats       systemStatsInternal
}

func systemName(system System) string {
	if n, ok := system.(Namer); ok {
		return n.Name()
	}
	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	return systemType.Name()
}

func systemEnabled(system System) bool {
	if t, ok := system.(Toggler); ok {
		return t.Enabled()
	}
	return true
}

func (m *Manager) findSystem(system System) int {
	return slices.IndexFunc(m.systems, func(entry *systemEntry) bool {
		return entry.system == system
	})
}

// AddSystem queues a system for registration at the next flush. Systems run
// in the order they were registered.
func (m *Manager) AddSystem(system System) error {
	if system == nil {
		return ErrNilSystem
	}

	known := m.findSystem(system) >= 0 || slices.Contains(m.pending.systemAdds, system)
	if known && slices.Contains(m.pending.systemRemoves, system) {
		// Re-added before its removal was flushed: keep it.
		m.pending.systemRemoves = slices.DeleteFunc(m.pending.systemRemoves, func(s System) bool {
			return s == system
		})
		return nil
	}
	if known {
		m.log.Warn("rejected duplicate system registration", zap.String("system", systemName(system)))
		return ErrSystemRegistered
	}

	m.pending.systemAdds = append(m.pending.systemAdds, system)
	return nil
}

// RemoveSystem queues a registered (or pending) system for removal at the
// next flush.
func (m *Manager) RemoveSystem(system System) error {
	if system == nil {
		return ErrNilSystem
	}
	if m.findSystem(system) < 0 && !slices.Contains(m.pending.systemAdds, system) {
		return ErrSystemNotRegistered
	}
	if !slices.Contains(m.pending.systemRemoves, system) {
		m.pending.systemRemoves = append(m.pending.systemRemoves, system)
	}
	return nil
}

// Systems returns the registered systems in execution order.
func (m *Manager) Systems() []System {
	systems := make([]System, len(m.systems))
	for i, entry := range m.systems {
		systems[i] = entry.system
	}
	return systems
}

// SystemInitialized reports whether a registered system has been initialized.
func (m *Manager) SystemInitialized(system System) bool {
	idx := m.findSystem(system)
	return idx >= 0 && m.systems[idx].initialized
}

func (m *Manager) flushSystems() {
	adds := m.pending.systemAdds
	removes := m.pending.systemRemoves
	m.pending.systemAdds = nil
	m.pending.systemRemoves = nil

	for _, system := range adds {
		if m.findSystem(system) >= 0 {
			continue
		}
		entry := &systemEntry{
			system: system,
			name:   systemName(system),
			stats:  systemStatsInternal{minDuration: time.Duration(1<<63 - 1)},
		}
		m.systems = append(m.systems, entry)
		m.events.queue(SystemAdded{System: system, Name: entry.name})
		m.log.Debug("system registered", zap.String("system", entry.name), zap.Int("position", len(m.systems)-1))
	}

	for _, system := range removes {
		idx := m.findSystem(system)
		if idx < 0 {
			continue
		}
		entry := m.systems[idx]
		m.systems = slices.Delete(m.systems, idx, idx+1)
		m.events.queue(SystemRemoved{System: system, Name: entry.name})
		m.log.Debug("system removed", zap.String("system", entry.name))
	}

	m.events.dispatch()
}

// Update runs one frame: flush entities, flush systems, run every enabled
// system in registration order, then flush entities again so anything
// created or destroyed during the frame is applied before the next one.
//
// A panicking system is not recovered and aborts the frame. Update must not
// be called from inside a frame.
func (m *Manager) Update(dt float64) {
	if m.busy {
		panic("ecs: Update called during an update or flush")
	}
	m.busy = true
	defer func() { m.busy = false }()

	m.frame++

	m.flushEntities()
	m.flushSystems()

	frame := newUpdateFrame(dt, m)

	// m.systems is only modified by flushSystems, never during this loop.
	for _, entry := range m.systems {
		if !systemEnabled(entry.system) {
			continue
		}

		if !entry.initialized {
			if init, ok := entry.system.(Initializer); ok {
				init.Initialize(frame)
			}
			entry.initialized = true
			m.log.Debug("system initialized", zap.String("system", entry.name), zap.Uint64("frame", m.frame))
		}

		start := time.Now()
		entry.system.Update(frame)
		entry.stats.record(time.Since(start))
	}

	m.flushEntities()
	m.runDefers()
}

// Run executes frames at the given interval until the context is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			m.Update(dt)
		}
	}
}
