package main

import (
	"fmt"
	"net/http"
)

type PushTokenPayload struct {
	PushToken string `json:"push_token" validate:"required"`
}

// SavePushToken godoc
//
//	@Summary		Register a device push token
//	@Description	Registering a token is what grants notification permission;
//	@Description	users without tokens are silently skipped by the dispatcher.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		PushTokenPayload	true	"Expo push token"
//	@Success		200		{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/users/push-token [post]
func (app *application) savePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("user not authenticated"))
		return
	}

	var payload PushTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.PushTokens.AddOrUpdate(r.Context(), user.UID, payload.PushToken); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "push token saved"})
}

// RemovePushToken godoc
//
//	@Summary		Remove a device push token
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		PushTokenPayload	true	"Expo push token"
//	@Success		200		{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/users/push-token [delete]
func (app *application) removePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("user not authenticated"))
		return
	}

	var payload PushTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.PushTokens.Remove(r.Context(), user.UID, payload.PushToken); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "push token removed"})
}
