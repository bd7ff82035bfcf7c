package main

import (
	"fmt"
	"net/http"
	"time"

	"drinkly/internal/geo"
	"drinkly/internal/tracker"
)

// Pointers keep (0, 0) — a legal fix on the equator — distinguishable from an
// absent field; required on a pointer only rejects nil.
type ReportLocationPayload struct {
	Lat *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng *float64 `json:"lng" validate:"required,min=-180,max=180"`
}

type LocationPreferencesPayload struct {
	NotifyNearby bool `json:"notify_nearby"`
}

// ReportLocation godoc
//
//	@Summary		Report the device's current position
//	@Description	Feeds the user's tracker, syncs the position to storage and
//	@Description	returns other users currently active within 50 meters.
//	@Tags			location
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ReportLocationPayload	true	"Current coordinates"
//	@Success		200		{array}		store.User
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/location [post]
func (app *application) reportLocationHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("user not authenticated"))
		return
	}

	var payload ReportLocationPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	p := geo.Point{Latitude: *payload.Lat, Longitude: *payload.Lng}
	app.trackers.Feed(user.UID, p)

	// Sync immediately as well, so a fresh position is queryable before the
	// tracker's next tick.
	if err := app.store.Users.UpdateLocation(r.Context(), user.UID, p, time.Now()); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	nearby, err := app.store.Users.FetchNearby(r.Context(), p, tracker.ProximityRadiusMeters, user.UID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, nearby); err != nil {
		app.internalServerError(w, r, err)
	}
}

// StartTracking godoc
//
//	@Summary		Start periodic location tracking
//	@Tags			location
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/users/location/start [post]
func (app *application) startTrackingHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("user not authenticated"))
		return
	}

	app.trackers.Start(user.UID)

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "tracking started"})
}

// StopTracking godoc
//
//	@Summary		Stop periodic location tracking
//	@Tags			location
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/users/location/stop [post]
func (app *application) stopTrackingHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("user not authenticated"))
		return
	}

	app.trackers.Stop(user.UID)

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "tracking stopped"})
}

// UpdateLocationPreferences godoc
//
//	@Summary		Toggle nearby proximity notifications
//	@Tags			location
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		LocationPreferencesPayload	true	"Preferences"
//	@Success		200		{object}	LocationPreferencesPayload
//	@Security		ApiKeyAuth
//	@Router			/users/location/preferences [put]
func (app *application) updateLocationPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("user not authenticated"))
		return
	}

	var payload LocationPreferencesPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	app.trackers.SetNotifyNearby(user.UID, payload.NotifyNearby)

	if err := app.jsonResponse(w, http.StatusOK, payload); err != nil {
		app.internalServerError(w, r, err)
	}
}
