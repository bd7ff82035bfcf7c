package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"drinkly/internal/store"
)

const maxProfileImageSize = 5 << 20 // 5MB

type UpdateUserPayload struct {
	Name  *string `json:"name" validate:"omitempty,max=100"`
	Email *string `json:"email" validate:"omitempty,email,max=255"`
	Phone *string `json:"phone" validate:"omitempty,max=30"`
	Bio   *string `json:"bio" validate:"omitempty,max=500"`
}

// UpdateUser godoc
//
//	@Summary		Update the signed-in user's profile
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		UpdateUserPayload	true	"Fields to update"
//	@Success		200		{object}	store.User
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users [put]
func (app *application) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("user not authenticated"))
		return
	}

	var payload UpdateUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	updates := map[string]interface{}{}
	if payload.Name != nil {
		updates["name"] = *payload.Name
	}
	if payload.Email != nil {
		updates["email"] = *payload.Email
	}
	if payload.Phone != nil {
		updates["phone"] = *payload.Phone
	}
	if payload.Bio != nil {
		updates["bio"] = *payload.Bio
	}
	if len(updates) == 0 {
		app.badRequestResponse(w, r, fmt.Errorf("no fields to update"))
		return
	}

	if err := app.store.Users.UpdateUser(r.Context(), user.UID, updates); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			app.badRequestResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	updated, err := app.store.Users.GetByID(r.Context(), user.UID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}

// UploadProfilePicture godoc
//
//	@Summary		Upload or replace the profile picture
//	@Tags			users
//	@Accept			mpfd
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Failure		400	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/profile-picture [post]
func (app *application) uploadProfilePictureHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("user not authenticated"))
		return
	}

	if err := r.ParseMultipartForm(maxProfileImageSize); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("image part is required: %w", err))
		return
	}
	defer file.Close()

	imageURL, err := app.uploadToCloudinary(r.Context(), file, "profile_pictures")
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	oldURL := user.ProfileImageURL

	if err := app.store.Users.SetProfileImage(r.Context(), user.UID, &imageURL); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if oldURL != nil {
		app.background(func() {
			if err := app.deleteFromCloudinary(context.Background(), *oldURL); err != nil {
				app.logger.Warnw("failed to delete replaced profile picture", "user_id", user.UID, "error", err)
			}
		})
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"profile_image_url": imageURL}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// RemoveProfilePicture godoc
//
//	@Summary		Remove the profile picture
//	@Tags			users
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/users/profile-picture [delete]
func (app *application) removeProfilePictureHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("user not authenticated"))
		return
	}

	if user.ProfileImageURL == nil {
		app.badRequestResponse(w, r, fmt.Errorf("no profile picture set"))
		return
	}

	oldURL := *user.ProfileImageURL

	if err := app.store.Users.SetProfileImage(r.Context(), user.UID, nil); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.background(func() {
		if err := app.deleteFromCloudinary(context.Background(), oldURL); err != nil {
			app.logger.Warnw("failed to delete profile picture", "user_id", user.UID, "error", err)
		}
	})

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "profile picture removed"})
}
