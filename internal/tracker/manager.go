package tracker

import (
	"sync"
	"time"

	"drinkly/internal/geo"

	"go.uber.org/zap"
)

// Manager owns one tracker per user, constructed at the composition root and
// handed to the HTTP layer; nothing reaches for ambient singletons. Trackers
// are created lazily and torn down on Stop/StopAll.
type Manager struct {
	users    UserStore
	venues   VenueStore
	notifier Notifier
	logger   *zap.SugaredLogger
	interval time.Duration

	mu       sync.Mutex
	trackers map[int64]*entry
}

type entry struct {
	source  *DeviceSource
	tracker *Tracker
}

func NewManager(users UserStore, venues VenueStore, notifier Notifier, logger *zap.SugaredLogger, interval time.Duration) *Manager {
	if interval < MinInterval {
		interval = MinInterval
	}
	return &Manager{
		users:    users,
		venues:   venues,
		notifier: notifier,
		logger:   logger,
		interval: interval,
		trackers: make(map[int64]*entry),
	}
}

func (m *Manager) entryFor(userID int64) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.trackers[userID]
	if !ok {
		source := NewDeviceSource()
		e = &entry{
			source:  source,
			tracker: New(userID, source, m.users, m.venues, m.notifier, m.logger, m.interval),
		}
		m.trackers[userID] = e
	}
	return e
}

// Feed records a device position report for the user. The tracker consumes
// the latest report on its next tick.
func (m *Manager) Feed(userID int64, p geo.Point) {
	m.entryFor(userID).source.Set(p)
}

// Start activates periodic sampling for the user.
func (m *Manager) Start(userID int64) {
	m.entryFor(userID).tracker.Start()
}

// Stop deactivates the user's tracker. Unknown users are a no-op.
func (m *Manager) Stop(userID int64) {
	m.mu.Lock()
	e, ok := m.trackers[userID]
	m.mu.Unlock()
	if ok {
		e.tracker.Stop()
	}
}

// SetNotifyNearby toggles the user's nearby-notification opt-in.
func (m *Manager) SetNotifyNearby(userID int64, enabled bool) {
	m.entryFor(userID).tracker.SetNotifyNearby(enabled)
}

// StopAll tears every tracker down; called on shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	entries := make([]*entry, 0, len(m.trackers))
	for _, e := range m.trackers {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	for _, e := range entries {
		e.tracker.Stop()
	}
}
