package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"drinkly/internal/geo"
	"drinkly/internal/store"

	"go.uber.org/zap"
)

const (
	// DefaultInterval is the target sampling interval; MinInterval is the
	// floor the platform location request is configured with.
	DefaultInterval = 30 * time.Second
	MinInterval     = 15 * time.Second

	// ProximityRadiusMeters is the radius for nearby-user and nearby-venue
	// notification checks.
	ProximityRadiusMeters = 50
)

// UserStore is the slice of the user store the tracker needs: backend
// location sync plus the nearby-user query.
type UserStore interface {
	UpdateLocation(ctx context.Context, uid int64, p geo.Point, at time.Time) error
	FetchNearby(ctx context.Context, origin geo.Point, radiusMeters float64, selfUID int64) ([]store.User, error)
}

// VenueStore is the venue proximity query.
type VenueStore interface {
	Nearby(ctx context.Context, origin geo.Point, radiusMeters float64) ([]store.Venue, error)
}

// Notifier receives proximity hits; in production it is the push dispatcher.
type Notifier interface {
	Notify(ctx context.Context, userID int64, title, message, dedupeKey string) error
}

// Tracker samples one user's position periodically while active. Each sample
// is delivered to the registered observer, synced to the backend, and — only
// when the user opted into nearby notifications — matched against nearby
// users and venues. A failed sync or proximity query is logged and the next
// tick proceeds regardless.
type Tracker struct {
	userID   int64
	source   Source
	users    UserStore
	venues   VenueStore
	notifier Notifier
	logger   *zap.SugaredLogger
	interval time.Duration

	mu           sync.Mutex
	cancel       context.CancelFunc
	done         chan struct{}
	notifyNearby bool
	observer     func(geo.Point)
}

func New(userID int64, source Source, users UserStore, venues VenueStore, notifier Notifier, logger *zap.SugaredLogger, interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Tracker{
		userID:   userID,
		source:   source,
		users:    users,
		venues:   venues,
		notifier: notifier,
		logger:   logger,
		interval: interval,
	}
}

// SetObserver registers the callback that receives every raw sample.
func (t *Tracker) SetObserver(fn func(geo.Point)) {
	t.mu.Lock()
	t.observer = fn
	t.mu.Unlock()
}

// SetNotifyNearby toggles the nearby-notification pipeline. Location sync to
// the backend continues either way.
func (t *Tracker) SetNotifyNearby(enabled bool) {
	t.mu.Lock()
	t.notifyNearby = enabled
	t.mu.Unlock()
}

func (t *Tracker) NotifyNearby() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.notifyNearby
}

// Active reports whether the tracker is currently sampling.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

// Start transitions Stopped -> Active and begins periodic sampling. Starting
// an active tracker is a no-op.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})

	// A fresh tracking session starts with a clean notification slate, so
	// entities that were nearby before the restart notify again.
	if r, ok := t.notifier.(interface{ Reset() }); ok {
		r.Reset()
	}

	go t.loop(ctx, t.done)
	t.logger.Infow("location tracking started", "user_uid", t.userID, "interval", t.interval)
}

// Stop transitions Active -> Stopped, cancels the sampling loop and waits
// for it to drain. No further samples are delivered or pushed.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel = nil
	t.done = nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	t.logger.Infow("location tracking stopped", "user_uid", t.userID)
}

func (t *Tracker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

func (t *Tracker) tick(ctx context.Context) {
	p, ok := t.source.LastKnown()
	if !ok {
		// No position available; treat as degraded capability, try again
		// next tick.
		return
	}

	t.mu.Lock()
	observer := t.observer
	t.mu.Unlock()
	if observer != nil {
		observer(p)
	}

	if err := t.users.UpdateLocation(ctx, t.userID, p, time.Now()); err != nil {
		t.logger.Errorw("failed to sync location", "user_uid", t.userID, "error", err)
	}

	if !t.NotifyNearby() {
		return
	}
	t.notifyNearbyUsers(ctx, p)
	t.notifyNearbyVenues(ctx, p)
}

func (t *Tracker) notifyNearbyUsers(ctx context.Context, origin geo.Point) {
	users, err := t.users.FetchNearby(ctx, origin, ProximityRadiusMeters, t.userID)
	if err != nil {
		t.logger.Errorw("failed to fetch nearby users", "user_uid", t.userID, "error", err)
		return
	}
	for _, u := range users {
		key := fmt.Sprintf("user-%d", u.UID)
		msg := fmt.Sprintf("%s is nearby!", u.Name)
		if err := t.notifier.Notify(ctx, t.userID, "User nearby", msg, key); err != nil {
			t.logger.Errorw("failed to notify about nearby user", "user_uid", t.userID, "error", err)
		}
	}
}

func (t *Tracker) notifyNearbyVenues(ctx context.Context, origin geo.Point) {
	venues, err := t.venues.Nearby(ctx, origin, ProximityRadiusMeters)
	if err != nil {
		t.logger.Errorw("failed to fetch nearby venues", "user_uid", t.userID, "error", err)
		return
	}
	for _, v := range venues {
		key := fmt.Sprintf("venue-%d", v.ID)
		msg := fmt.Sprintf("%s is nearby!", v.Name)
		if err := t.notifier.Notify(ctx, t.userID, "Venue nearby", msg, key); err != nil {
			t.logger.Errorw("failed to notify about nearby venue", "user_uid", t.userID, "error", err)
		}
	}
}
