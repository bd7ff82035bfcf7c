package tracker

import (
	"sync"

	"drinkly/internal/geo"
)

// Source hands the tracker the most recent device position. Reporting no
// position (permission missing, no fix yet) is a degraded condition, not an
// error: the tick is simply skipped.
type Source interface {
	LastKnown() (geo.Point, bool)
}

// DeviceSource is a Source fed by the device's location reports. It only
// remembers the latest position.
type DeviceSource struct {
	mu  sync.RWMutex
	p   geo.Point
	set bool
}

func NewDeviceSource() *DeviceSource {
	return &DeviceSource{}
}

func (s *DeviceSource) Set(p geo.Point) {
	s.mu.Lock()
	s.p = p
	s.set = true
	s.mu.Unlock()
}

func (s *DeviceSource) LastKnown() (geo.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p, s.set
}
