package main

import (
	"errors"
	"net/http"

	"github.com/hafizmfadli/movies-api/internal/data"
	"github.com/hafizmfadli/movies-api/internal/validator"
)

// signUpHandler for the "POST /v1/auth/sign-up" endpoint.
func (app *application) signUpHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string  `json:"name"`
		Email    string  `json:"email"`
		Password string  `json:"password"`
		Role     *string `json:"role"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := &data.User{
		Name:  input.Name,
		Email: input.Email,
		Role:  data.RoleRegular,
	}
	if input.Role != nil {
		user.Role = data.Role(*input.Role)
	}

	v := validator.New()

	// The plaintext is validated before hashing: bcrypt refuses anything over
	// 72 bytes, and that is a client error.
	data.ValidateUserProfile(v, user)
	data.ValidatePasswordPlaintext(v, input.Password)

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = user.Password.Set(input.Password)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	_, err = app.models.Users.GetByEmail(r.Context(), user.Email)
	switch {
	case err == nil:
		app.duplicateUserResponse(w, r)
		return
	case !errors.Is(err, data.ErrRecordNotFound):
		app.classifiedErrorResponse(w, r, err)
		return
	}

	// A concurrent sign-up with the same email can still win the race, in
	// which case the unique constraint reports the duplicate.
	err = app.models.Users.Insert(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicateEmail):
			app.duplicateUserResponse(w, r)
		default:
			app.classifiedErrorResponse(w, r, err)
		}
		return
	}

	app.background(func() {
		err := app.mailer.Send(user.Email, "user_welcome.tmpl", user)
		if err != nil {
			app.logger.PrintError(err, map[string]string{
				"template":  "user_welcome.tmpl",
				"recipient": user.Email,
			})
		}
	})

	err = app.writeJSON(w, http.StatusCreated, envelope{"user": user}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// loginHandler for the "POST /v1/auth/login" endpoint. It exchanges an email
// and password for an access token.
func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	data.ValidateEmail(v, input.Email)
	v.Check(input.Password != "", "password", "must be provided")

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	user, err := app.models.Users.GetByEmail(r.Context(), input.Email)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.invalidCredentialsResponse(w, r)
		default:
			app.classifiedErrorResponse(w, r, err)
		}
		return
	}

	match, err := user.Password.Matches(input.Password)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if !match {
		app.invalidCredentialsResponse(w, r)
		return
	}

	token, err := app.tokens.Issue(user)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.metrics.issuedTokens.Inc()

	err = app.writeJSON(w, http.StatusOK, envelope{"access_token": token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
