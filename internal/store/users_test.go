package store

import (
	"errors"
	"testing"
	"time"

	"drinkly/internal/geo"
)

func nearbyUser(uid int64, p geo.Point, lastActive time.Time) User {
	return User{UID: uid, Location: &p, LastActiveAt: &lastActive}
}

func TestFilterNearby(t *testing.T) {
	now := time.Now()
	origin := geo.Point{Latitude: 0, Longitude: 0}
	near := geo.Point{Latitude: 0.0003, Longitude: 0} // ~33m
	far := geo.Point{Latitude: 0.01, Longitude: 0}    // ~1.1km

	const self = int64(99)

	t.Run("recently active user within radius is included", func(t *testing.T) {
		users := []User{nearbyUser(1, near, now.Add(-5*time.Second))}
		got := filterNearby(users, origin, 50, self, now)
		if len(got) != 1 || got[0].UID != 1 {
			t.Fatalf("got %v, want user 1", got)
		}
	})

	t.Run("stale position is excluded even within radius", func(t *testing.T) {
		users := []User{nearbyUser(1, near, now.Add(-20*time.Second))}
		if got := filterNearby(users, origin, 50, self, now); len(got) != 0 {
			t.Fatalf("stale user must be excluded, got %v", got)
		}
	})

	t.Run("user outside radius is excluded", func(t *testing.T) {
		users := []User{nearbyUser(1, far, now)}
		if got := filterNearby(users, origin, 50, self, now); len(got) != 0 {
			t.Fatalf("far user must be excluded, got %v", got)
		}
	})

	t.Run("caller is always excluded", func(t *testing.T) {
		users := []User{nearbyUser(self, near, now)}
		if got := filterNearby(users, origin, 50, self, now); len(got) != 0 {
			t.Fatalf("caller must be excluded, got %v", got)
		}
	})

	t.Run("missing location or activity excludes", func(t *testing.T) {
		active := now.Add(-time.Second)
		users := []User{
			{UID: 1, LastActiveAt: &active},
			{UID: 2, Location: &near},
		}
		if got := filterNearby(users, origin, 50, self, now); len(got) != 0 {
			t.Fatalf("users with missing fields must be excluded, got %v", got)
		}
	})

	t.Run("conditions are conjunctive", func(t *testing.T) {
		users := []User{
			nearbyUser(1, near, now.Add(-3*time.Second)),  // in
			nearbyUser(2, near, now.Add(-16*time.Second)), // stale
			nearbyUser(3, far, now.Add(-3*time.Second)),   // far
			nearbyUser(self, near, now),                   // caller
		}
		got := filterNearby(users, origin, 50, self, now)
		if len(got) != 1 || got[0].UID != 1 {
			t.Fatalf("got %v, want only user 1", got)
		}
	})
}

func TestIsDuplicateEmail(t *testing.T) {
	dup := errors.New(`ERROR: duplicate key value violates unique constraint "users_email_key" (SQLSTATE 23505)`)
	if !isDuplicateEmail(dup) {
		t.Fatal("email unique violation not recognized")
	}

	if isDuplicateEmail(errors.New("connection refused")) {
		t.Fatal("unrelated error treated as duplicate email")
	}
	if isDuplicateEmail(nil) {
		t.Fatal("nil error treated as duplicate email")
	}
}
