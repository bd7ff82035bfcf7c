package main

import (
	"net/http"
	"strconv"
)

const defaultLeaderboardLimit = 50

// Leaderboard godoc
//
//	@Summary		Top reviewers
//	@Description	Users ranked by reviews posted; verified reviews count double.
//	@Tags			users
//	@Produce		json
//	@Param			limit	query		int	false	"Max entries, default 50"
//	@Success		200		{array}		store.User
//	@Failure		500		{object}	error
//	@Router			/leaderboard [get]
func (app *application) leaderboardHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 200 {
			app.badRequestResponse(w, r, errInvalidLimit)
			return
		}
		limit = parsed
	}

	users, err := app.store.Users.Leaderboard(r.Context(), limit)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, users); err != nil {
		app.internalServerError(w, r, err)
	}
}
