package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"drinkly/internal/mailer"
	"drinkly/internal/store"

	"github.com/golang-jwt/jwt/v5"
)

const defaultBio = "Life's too short for bad drinks ✌️🍸"

type RegisterUserPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"required,max=30"`
}

// RegisterUser godoc
//
//	@Summary		Register a new user
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RegisterUserPayload	true	"User credentials"
//	@Success		201		{object}	store.User
//	@Failure		400		{object}	error
//	@Router			/authentication/user [post]
func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload RegisterUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := &store.User{
		Email: payload.Email,
		Name:  payload.Name,
		Phone: payload.Phone,
		Bio:   defaultBio,
	}
	if err := user.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			app.badRequestResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.background(func() {
		data := map[string]string{"Username": user.Name}
		if _, err := app.mailer.Send(mailer.UserWelcomeTemplate, user.Name, user.Email, data); err != nil {
			app.logger.Errorw("failed to send welcome email", "email", user.Email, "error", err)
		}
	})

	if err := app.jsonResponse(w, http.StatusCreated, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreateTokenPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CreateToken godoc
//
//	@Summary		Log in and obtain token pair
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateTokenPayload	true	"Credentials"
//	@Success		200		{object}	TokenResponse
//	@Failure		401		{object}	error
//	@Router			/authentication/token [post]
func (app *application) createTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.store.Users.GetByEmail(r.Context(), payload.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid credentials"))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := user.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid credentials"))
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(user.UID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.UpdateRefreshToken(r.Context(), user.UID, refreshToken); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

type RefreshTokenPayload struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload RefreshTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	jwtToken, err := app.authenticator.ValidateRefreshToken(payload.RefreshToken)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	claims, _ := jwtToken.Claims.(jwt.MapClaims)
	uid, err := strconv.ParseInt(fmt.Sprintf("%.f", claims["sub"]), 10, 64)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	user, err := app.store.Users.GetByID(r.Context(), uid)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	if user.RefreshToken != payload.RefreshToken {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("refresh token revoked"))
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(user.UID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.UpdateRefreshToken(r.Context(), user.UID, refreshToken); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// Logout revokes the refresh token and halts location tracking for the user.
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("user not authenticated"))
		return
	}

	if err := app.store.Users.UpdateRefreshToken(r.Context(), user.UID, ""); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.trackers.Stop(user.UID)

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}
