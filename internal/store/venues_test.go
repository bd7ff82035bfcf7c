package store

import (
	"math"
	"testing"

	"drinkly/internal/geo"
)

func TestFilterByName(t *testing.T) {
	venues := []Venue{
		{ID: 1, Name: "Irish Bar"},
		{ID: 2, Name: "Corner Cafe"},
		{ID: 3, Name: "barbarella"},
	}

	t.Run("blank query keeps everything", func(t *testing.T) {
		if got := filterByName(venues, ""); len(got) != 3 {
			t.Errorf("got %d venues, want 3", len(got))
		}
		if got := filterByName(venues, "   "); len(got) != 3 {
			t.Errorf("whitespace query: got %d venues, want 3", len(got))
		}
	})

	t.Run("case-insensitive substring", func(t *testing.T) {
		got := filterByName(venues, "Bar")
		if len(got) != 2 {
			t.Fatalf("got %d venues, want 2", len(got))
		}
		if got[0].ID != 1 || got[1].ID != 3 {
			t.Errorf("got ids %d,%d, want 1,3", got[0].ID, got[1].ID)
		}
	})

	t.Run("no match drops everything", func(t *testing.T) {
		if got := filterByName(venues, "pizzeria"); len(got) != 0 {
			t.Errorf("got %d venues, want 0", len(got))
		}
	})
}

func TestFilterByDistance(t *testing.T) {
	origin := geo.Point{Latitude: 0, Longitude: 0}
	venues := []Venue{
		{ID: 1, Name: "here", Location: geo.Point{Latitude: 0, Longitude: 0}},
		{ID: 2, Name: "close", Location: geo.Point{Latitude: 0.0003, Longitude: 0}},   // ~33m
		{ID: 3, Name: "mid", Location: geo.Point{Latitude: 0.04, Longitude: 0}},       // ~4.4km
		{ID: 4, Name: "far", Location: geo.Point{Latitude: 0.06, Longitude: 0}},       // ~6.7km
		{ID: 5, Name: "very far", Location: geo.Point{Latitude: 1, Longitude: 1}},
	}

	got := FilterByDistance(venues, origin, 5000)
	if len(got) != 3 {
		t.Fatalf("got %d venues, want 3", len(got))
	}
	for _, v := range got {
		if v.ID == 4 || v.ID == 5 {
			t.Errorf("venue %d should have been dropped", v.ID)
		}
	}
}

func TestFilterByDistanceBoundaryInclusive(t *testing.T) {
	origin := geo.Point{Latitude: 0, Longitude: 0}
	at := geo.Point{Latitude: 0.0003, Longitude: 0}

	radius := geo.Distance(origin, at)
	venues := []Venue{{ID: 1, Location: at}}

	if got := FilterByDistance(venues, origin, radius); len(got) != 1 {
		t.Errorf("venue exactly at the radius must be kept")
	}
	if got := FilterByDistance(venues, origin, radius-0.5); len(got) != 0 {
		t.Errorf("venue past the radius must be dropped")
	}
}

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{"no reviews", nil, 0},
		{"single", []int{4}, 4},
		{"mixed", []int{5, 3, 4}, 4},
		{"non-integral mean", []int{5, 4}, 4.5},
		{"all ones", []int{1, 1, 1, 1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := averageRating(tt.ratings)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("averageRating(%v) = %v, want %v", tt.ratings, got, tt.want)
			}
		})
	}
}
