package main

import (
	"net/http"
	"strconv"

	"drinkly/internal/store"

	"github.com/go-chi/chi/v5"
)

// GetVenueMenu godoc
//
//	@Summary		List available menu items for a venue
//	@Description	Returns only items currently marked available. A storage
//	@Description	failure degrades to an empty list so the venue page still renders.
//	@Tags			venues
//	@Produce		json
//	@Param			venueID		path		int		true	"Venue ID"
//	@Param			category	query		string	false	"food, drink or all"
//	@Success		200			{array}		store.MenuItem
//	@Router			/venues/{venueID}/menu [get]
func (app *application) getVenueMenuHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := strconv.ParseInt(chi.URLParam(r, "venueID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	category := r.URL.Query().Get("category")
	if category == "" {
		category = store.MenuCategoryAll
	}

	items, err := app.store.MenuItems.GetForVenueByCategory(r.Context(), venueID, category)
	if err != nil {
		// A broken menu must not break the venue screen.
		app.logger.Errorw("failed to load menu, serving empty list", "venue_id", venueID, "error", err)
		items = []store.MenuItem{}
	}
	if items == nil {
		items = []store.MenuItem{}
	}

	if err := app.jsonResponse(w, http.StatusOK, items); err != nil {
		app.internalServerError(w, r, err)
	}
}
