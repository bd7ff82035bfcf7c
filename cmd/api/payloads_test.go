package main

import "testing"

func floatPtr(f float64) *float64 { return &f }

func TestCreateReviewPayloadAcceptsZeroCoordinates(t *testing.T) {
	payload := CreateReviewPayload{
		Title:   "Great spot",
		Comment: "Cold beer, good music",
		Rating:  5,
		Lat:     floatPtr(0),
		Lng:     floatPtr(0.0003),
	}
	if err := Validate.Struct(payload); err != nil {
		t.Fatalf("equator-adjacent coordinates should validate: %v", err)
	}
}

func TestCreateReviewPayloadAcceptsMissingOrigin(t *testing.T) {
	payload := CreateReviewPayload{
		Title:   "Great spot",
		Comment: "Cold beer, good music",
		Rating:  4,
	}
	if err := Validate.Struct(payload); err != nil {
		t.Fatalf("review without a position fix should validate: %v", err)
	}
}

func TestCreateReviewPayloadRejectsOutOfRangeCoordinates(t *testing.T) {
	payload := CreateReviewPayload{
		Title:   "Great spot",
		Comment: "Cold beer, good music",
		Rating:  4,
		Lat:     floatPtr(91),
		Lng:     floatPtr(0),
	}
	if err := Validate.Struct(payload); err == nil {
		t.Fatal("latitude beyond 90 should fail validation")
	}
}

func TestReportLocationPayloadAcceptsZeroCoordinates(t *testing.T) {
	payload := ReportLocationPayload{
		Lat: floatPtr(0),
		Lng: floatPtr(0),
	}
	if err := Validate.Struct(payload); err != nil {
		t.Fatalf("a fix at (0, 0) should validate: %v", err)
	}
}

func TestReportLocationPayloadRequiresCoordinates(t *testing.T) {
	if err := Validate.Struct(ReportLocationPayload{}); err == nil {
		t.Fatal("missing coordinates should fail validation")
	}
}
