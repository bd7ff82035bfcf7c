package main

import (
	"net/http"
	"strconv"

	"drinkly/internal/geo"
	"drinkly/internal/store"

	"github.com/go-chi/chi/v5"
)

// SearchVenues godoc
//
//	@Summary		Search venues
//	@Description	Filters by category, name substring and radius from an origin
//	@Tags			venues
//	@Produce		json
//	@Param			category	query		string	false	"Venue category, defaults to all"
//	@Param			q			query		string	false	"Case-insensitive name substring"
//	@Param			lat			query		number	false	"Origin latitude"
//	@Param			lng			query		number	false	"Origin longitude"
//	@Param			radius_km	query		number	false	"Radius in kilometers, requires lat and lng"
//	@Success		200			{array}		store.Venue
//	@Failure		500			{object}	error
//	@Router			/venues [get]
func (app *application) searchVenuesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	category := q.Get("category")
	if category == "" {
		category = store.CategoryAll
	}

	var origin *geo.Point
	var radiusKm int

	latStr, lngStr := q.Get("lat"), q.Get("lng")
	if latStr != "" && lngStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lng, lngErr := strconv.ParseFloat(lngStr, 64)
		if latErr != nil || lngErr != nil {
			app.badRequestResponse(w, r, errInvalidCoordinates)
			return
		}
		origin = &geo.Point{Latitude: lat, Longitude: lng}

		if radiusStr := q.Get("radius_km"); radiusStr != "" {
			radius, err := strconv.Atoi(radiusStr)
			if err != nil || radius < 0 {
				app.badRequestResponse(w, r, errInvalidRadius)
				return
			}
			radiusKm = radius
		}
	}

	venues, err := app.store.Venues.Search(r.Context(), category, q.Get("q"), radiusKm, origin)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, venues); err != nil {
		app.internalServerError(w, r, err)
	}
}

// GetVenue godoc
//
//	@Summary		Get a venue by ID
//	@Tags			venues
//	@Produce		json
//	@Param			venueID	path		int	true	"Venue ID"
//	@Success		200		{object}	store.Venue
//	@Failure		404		{object}	error
//	@Router			/venues/{venueID} [get]
func (app *application) getVenueHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := strconv.ParseInt(chi.URLParam(r, "venueID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	venue, err := app.store.Venues.GetByID(r.Context(), venueID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if venue == nil {
		app.notFoundResponse(w, r, errVenueNotFound)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, venue); err != nil {
		app.internalServerError(w, r, err)
	}
}
