package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"drinkly/internal/geo"
	"drinkly/internal/store"
	"drinkly/internal/tracker"

	"github.com/go-chi/chi/v5"
)

const maxReviewImageSize = 10 << 20 // 10MB

// Lat/Lng are pointers so a reviewer on the equator or prime meridian is not
// mistaken for a missing origin. Both absent means the device had no fix; the
// review is still accepted, just never verified.
type CreateReviewPayload struct {
	Title   string   `json:"title" validate:"required,max=120"`
	Comment string   `json:"comment" validate:"required,max=2000"`
	Rating  int      `json:"rating" validate:"required,min=1,max=5"`
	Lat     *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lng     *float64 `json:"lng" validate:"omitempty,min=-180,max=180"`
}

// GetVenueReviews godoc
//
//	@Summary		List reviews for a venue
//	@Description	Newest first, each review carrying its author snapshot
//	@Tags			reviews
//	@Produce		json
//	@Param			venueID	path		int	true	"Venue ID"
//	@Success		200		{array}		store.Review
//	@Failure		500		{object}	error
//	@Router			/venues/{venueID}/reviews [get]
func (app *application) getVenueReviewsHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := strconv.ParseInt(chi.URLParam(r, "venueID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	reviews, err := app.store.Reviews.ListForVenue(r.Context(), venueID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, reviews); err != nil {
		app.internalServerError(w, r, err)
	}
}

// CreateVenueReview godoc
//
//	@Summary		Submit a review for a venue
//	@Description	Multipart form: a "payload" JSON part and an optional "image"
//	@Description	part. The image is uploaded first; if that fails nothing is
//	@Description	written. The review is marked verified when the reporter stood
//	@Description	within 50 meters of the venue; without coordinates it is
//	@Description	accepted unverified.
//	@Tags			reviews
//	@Accept			mpfd
//	@Produce		json
//	@Param			venueID	path		int	true	"Venue ID"
//	@Success		201		{object}	store.Review
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/reviews [post]
func (app *application) createVenueReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("user not authenticated"))
		return
	}

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

	if err := r.ParseMultipartForm(maxReviewImageSize); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload CreateReviewPayload
	if err := json.Unmarshal([]byte(r.FormValue("payload")), &payload); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid payload part: %w", err))
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// Image first. A failed upload aborts the whole submission so we never
	// persist a review pointing at an image that does not exist.
	var imageURL string
	if file, _, err := r.FormFile("image"); err == nil {
		defer file.Close()

		imageURL, err = app.uploadToCloudinary(r.Context(), file, "reviews")
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}
	}

	if (payload.Lat == nil) != (payload.Lng == nil) {
		app.badRequestResponse(w, r, errPartialCoordinates)
		return
	}

	verified := false
	if payload.Lat != nil {
		reviewerAt := geo.Point{Latitude: *payload.Lat, Longitude: *payload.Lng}
		verified = geo.Distance(reviewerAt, venue.Location) <= tracker.ProximityRadiusMeters
	}

	review := &store.Review{
		VenueID:  venueID,
		UserUID:  user.UID,
		Title:    payload.Title,
		Comment:  payload.Comment,
		Rating:   payload.Rating,
		ImageURL: imageURL,
		Verified: verified,
	}

	if err := app.store.Reviews.Create(r.Context(), review); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// The review is durable from here on. The follow-up aggregates are each
	// atomic on their own row; a failure is logged, never surfaced, and never
	// rolls the review back.
	if err := app.store.Venues.RecalculateRating(r.Context(), venueID); err != nil {
		app.logger.Errorw("failed to recalculate venue rating", "venue_id", venueID, "error", err)
	}

	delta := 1
	if verified {
		delta = 2
	}
	if err := app.store.Users.IncrementReviewsPosted(r.Context(), user.UID, delta); err != nil {
		app.logger.Errorw("failed to bump reviews_posted", "user_id", user.UID, "error", err)
	}

	if err := app.store.Venues.IncrementReviewsCount(r.Context(), venueID); err != nil {
		app.logger.Errorw("failed to bump venue reviews_count", "venue_id", venueID, "error", err)
	}

	if err := app.jsonResponse(w, http.StatusCreated, review); err != nil {
		app.internalServerError(w, r, err)
	}
}

// LiveVenueReviews godoc
//
//	@Summary		Stream a venue's reviews over SSE
//	@Description	Emits the full ordered list on connect and again after every
//	@Description	new review. Clients reconnect via standard EventSource retry.
//	@Tags			reviews
//	@Produce		text/event-stream
//	@Param			venueID	path	int	true	"Venue ID"
//	@Success		200
//	@Router			/venues/{venueID}/reviews/live [get]
func (app *application) liveVenueReviewsHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := strconv.ParseInt(chi.URLParam(r, "venueID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		app.internalServerError(w, r, fmt.Errorf("streaming unsupported"))
		return
	}

	updates, err := app.store.Reviews.Subscribe(r.Context(), venueID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for update := range updates {
		if update.Err != nil {
			// A degraded tick keeps the stream alive; the next insert or
			// reconnect refreshes it.
			app.logger.Errorw("live reviews update failed", "venue_id", venueID, "error", update.Err)
			fmt.Fprint(w, "event: error\ndata: {}\n\n")
			flusher.Flush()
			continue
		}

		data, err := json.Marshal(update.Reviews)
		if err != nil {
			app.logger.Errorw("failed to encode live reviews", "venue_id", venueID, "error", err)
			continue
		}
		fmt.Fprintf(w, "event: reviews\ndata: %s\n\n", data)
		flusher.Flush()
	}
}
