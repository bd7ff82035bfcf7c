package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"drinkly/internal/geo"
	"drinkly/internal/store"

	"go.uber.org/zap"
)

type fakeUserStore struct {
	mu          sync.Mutex
	updates     int
	updateErr   error
	nearby      []store.User
	nearbyCalls int
}

func (f *fakeUserStore) UpdateLocation(_ context.Context, _ int64, _ geo.Point, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	return f.updateErr
}

func (f *fakeUserStore) FetchNearby(_ context.Context, _ geo.Point, _ float64, _ int64) ([]store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nearbyCalls++
	return f.nearby, nil
}

func (f *fakeUserStore) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates
}

func (f *fakeUserStore) nearbyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nearbyCalls
}

type fakeVenueStore struct {
	mu     sync.Mutex
	venues []store.Venue
	calls  int
}

func (f *fakeVenueStore) Nearby(_ context.Context, _ geo.Point, _ float64) ([]store.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.venues, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeNotifier) Notify(_ context.Context, _ int64, _, _, dedupeKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dedupeKey)
	return nil
}

func (f *fakeNotifier) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// resettableNotifier mirrors the dispatcher's optional Reset.
type resettableNotifier struct {
	fakeNotifier
	mu     sync.Mutex
	resets int
}

func (f *resettableNotifier) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

func (f *resettableNotifier) resetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resets
}

func newTestTracker(users *fakeUserStore, venues *fakeVenueStore, notifier *fakeNotifier) (*Tracker, *DeviceSource) {
	source := NewDeviceSource()
	t := New(1, source, users, venues, notifier, zap.NewNop().Sugar(), 5*time.Millisecond)
	return t, source
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestTrackerSyncsLocationWhileActive(t *testing.T) {
	users := &fakeUserStore{}
	tr, source := newTestTracker(users, &fakeVenueStore{}, &fakeNotifier{})
	source.Set(geo.Point{Latitude: 44.8, Longitude: 20.45})

	tr.Start()
	defer tr.Stop()

	waitFor(t, func() bool { return users.updateCount() >= 3 })
}

func TestTrackerSkipsTickWithoutPosition(t *testing.T) {
	users := &fakeUserStore{}
	tr, _ := newTestTracker(users, &fakeVenueStore{}, &fakeNotifier{})

	tr.Start()
	defer tr.Stop()

	time.Sleep(50 * time.Millisecond)
	if got := users.updateCount(); got != 0 {
		t.Fatalf("no position available but %d syncs happened", got)
	}
}

func TestTrackerProximityGatedByPreference(t *testing.T) {
	users := &fakeUserStore{nearby: []store.User{{UID: 2, Name: "Ana"}}}
	venues := &fakeVenueStore{venues: []store.Venue{{ID: 5, Name: "Pub"}}}
	notifier := &fakeNotifier{}
	tr, source := newTestTracker(users, venues, notifier)
	source.Set(geo.Point{})

	tr.Start()
	defer tr.Stop()

	// Preference off: location still syncs, proximity checks do not run.
	waitFor(t, func() bool { return users.updateCount() >= 2 })
	if users.nearbyCount() != 0 || len(notifier.keys()) != 0 {
		t.Fatal("proximity pipeline ran with notifications disabled")
	}

	tr.SetNotifyNearby(true)
	waitFor(t, func() bool { return len(notifier.keys()) >= 2 })

	keys := notifier.keys()
	seen := map[string]bool{}
	for _, k := range keys {
		seen[k] = true
	}
	if !seen["user-2"] || !seen["venue-5"] {
		t.Fatalf("got dedupe keys %v, want user-2 and venue-5", keys)
	}
}

func TestTrackerSurvivesSyncFailures(t *testing.T) {
	users := &fakeUserStore{updateErr: errors.New("backend down")}
	tr, source := newTestTracker(users, &fakeVenueStore{}, &fakeNotifier{})
	source.Set(geo.Point{})

	tr.Start()
	defer tr.Stop()

	// Failures are logged per tick; sampling continues.
	waitFor(t, func() bool { return users.updateCount() >= 3 })
	if !tr.Active() {
		t.Fatal("tracker stopped after sync failures")
	}
}

func TestTrackerStopHaltsSampling(t *testing.T) {
	users := &fakeUserStore{}
	tr, source := newTestTracker(users, &fakeVenueStore{}, &fakeNotifier{})
	source.Set(geo.Point{})

	tr.Start()
	waitFor(t, func() bool { return users.updateCount() >= 1 })
	tr.Stop()

	if tr.Active() {
		t.Fatal("tracker still active after Stop")
	}
	count := users.updateCount()
	time.Sleep(30 * time.Millisecond)
	if users.updateCount() != count {
		t.Fatal("samples delivered after Stop")
	}
}

func TestTrackerStartIsIdempotent(t *testing.T) {
	users := &fakeUserStore{}
	tr, source := newTestTracker(users, &fakeVenueStore{}, &fakeNotifier{})
	source.Set(geo.Point{})

	tr.Start()
	tr.Start()
	defer tr.Stop()

	if !tr.Active() {
		t.Fatal("tracker not active after Start")
	}
}

func TestTrackerObserverReceivesSamples(t *testing.T) {
	users := &fakeUserStore{}
	tr, source := newTestTracker(users, &fakeVenueStore{}, &fakeNotifier{})

	var mu sync.Mutex
	var got []geo.Point
	tr.SetObserver(func(p geo.Point) {
		mu.Lock()
		got = append(got, p)
		mu.Unlock()
	})

	want := geo.Point{Latitude: 1, Longitude: 2}
	source.Set(want)

	tr.Start()
	defer tr.Stop()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	})

	mu.Lock()
	defer mu.Unlock()
	if got[0] != want {
		t.Fatalf("observer got %v, want %v", got[0], want)
	}
}

func TestTrackerStartResetsNotificationSlots(t *testing.T) {
	notifier := &resettableNotifier{}
	source := NewDeviceSource()
	tr := New(1, source, &fakeUserStore{}, &fakeVenueStore{}, notifier, zap.NewNop().Sugar(), 5*time.Millisecond)

	tr.Start()
	tr.Stop()
	tr.Start()
	defer tr.Stop()

	if got := notifier.resetCount(); got != 2 {
		t.Fatalf("notifier reset %d times, want once per Start", got)
	}
}

func TestManagerLifecycle(t *testing.T) {
	users := &fakeUserStore{}
	m := NewManager(users, &fakeVenueStore{}, &fakeNotifier{}, zap.NewNop().Sugar(), 0)

	// The manager floors the interval; swap in a short tracker for the test.
	m.interval = 5 * time.Millisecond

	m.Feed(1, geo.Point{Latitude: 44.8, Longitude: 20.45})
	m.Start(1)
	waitFor(t, func() bool { return users.updateCount() >= 1 })

	m.Stop(1)
	count := users.updateCount()
	time.Sleep(30 * time.Millisecond)
	if users.updateCount() != count {
		t.Fatal("tracker still sampling after manager Stop")
	}

	// Stopping an unknown user must not panic.
	m.Stop(42)
	m.StopAll()
}
