package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hafizmfadli/movies-api/internal/catalog"
	"github.com/hafizmfadli/movies-api/internal/data"
	"github.com/hafizmfadli/movies-api/internal/seed"
)

// logError is generic helper for logging error message.
func (app *application) logError(r *http.Request, err error) {
	app.logger.PrintError(err, map[string]string{
		"request_method": r.Method,
		"request_url":    r.URL.String(),
		"request_id":     contextGetRequestID(r),
	})
}

// logClientError records a store error caused by the request's data. It is
// logged at INFO since nothing is wrong with the server.
func (app *application) logClientError(r *http.Request, err error, properties map[string]string) {
	properties["error"] = err.Error()
	properties["request_method"] = r.Method
	properties["request_url"] = r.URL.String()
	properties["request_id"] = contextGetRequestID(r)

	app.logger.PrintInfo("store rejected request", properties)
}

// errorResponse is generic helper for sending JSON-formatted error message
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	env := envelope{
		"error": message,
	}

	err := app.writeJSON(w, status, env, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// serverErrorResponse will be used to send a 500 Internal Server Error status code with JSON formatted
func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	message := "the server encountered a problem and could not process your request"
	app.errorResponse(w, r, http.StatusInternalServerError, message)
}

// notFoundResponse will be used to send a 404 Not Found status code with JSON formatted
func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	app.errorResponse(w, r, http.StatusNotFound, message)
}

func (app *application) movieNotFoundResponse(w http.ResponseWriter, r *http.Request, id int64) {
	app.errorResponse(w, r, http.StatusNotFound, fmt.Sprintf("Movie with id %d not found", id))
}

// methodNotAllowedResponse will be used to send a 405 Method Not Allowed status code with JSON formatted
func (app *application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("the %s method is not supported for this resource", r.Method)
	app.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

// badRequestResponse will be used to send a 400 Bad Request status code with JSON formatted
func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

// failedValidationResponse will be used to send a 422 Unprocessable Entity status code with JSON formatted
func (app *application) failedValidationResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	app.errorResponse(w, r, http.StatusUnprocessableEntity, errors)
}

func (app *application) duplicateUserResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusConflict, "user already exists")
}

// rateLimitExceededResponse will be used to send a 429 Too Many Requests status code with JSON formatted
func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	message := "rate limit exceeded"
	app.errorResponse(w, r, http.StatusTooManyRequests, message)
}

// invalidCredentialsResponse is sent when login email or password are wrong.
// Both cases share one message so accounts cannot be enumerated.
func (app *application) invalidCredentialsResponse(w http.ResponseWriter, r *http.Request) {
	message := "invalid email or password"
	app.errorResponse(w, r, http.StatusUnauthorized, message)
}

// noTokenResponse is sent when a protected route is called without a bearer token.
func (app *application) noTokenResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusBadRequest, "no token provided")
}

// invalidAuthenticationTokenResponse is sent when the bearer token fails verification.
func (app *application) invalidAuthenticationTokenResponse(w http.ResponseWriter, r *http.Request) {
	// Including a "WWW-Authenticate: Bearer" header here to help inform or remind the client
	// that we expect to authenticate using a bearer token.
	w.Header().Set("WWW-Authenticate", "Bearer")
	app.errorResponse(w, r, http.StatusUnauthorized, "invalid token")
}

// notPermittedResponse is sent when the token's role is not accepted by the route.
func (app *application) notPermittedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusForbidden, "missing required role")
}

// upstreamErrorResponse answers with the catalog's own status code, or 502
// when the catalog could not be reached at all.
func (app *application) upstreamErrorResponse(w http.ResponseWriter, r *http.Request, err *catalog.RemoteError) {
	app.logError(r, err)

	status := err.StatusCode
	if status == 0 {
		status = http.StatusBadGateway
	}
	app.errorResponse(w, r, status, err.Error())
}

// classifiedErrorResponse maps errors coming out of the store, the catalog
// and the seeder to a response. Unknown errors become a 500.
func (app *application) classifiedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var (
		constraintErr *data.ConstraintError
		queryErr      *data.QueryError
		remoteErr     *catalog.RemoteError
		aggregateErr  *seed.AggregateError
	)

	switch {
	case errors.As(err, &aggregateErr):
		app.logError(r, err)
		app.errorResponse(w, r, http.StatusInternalServerError, aggregateErr.Error())
	case errors.As(err, &constraintErr):
		app.logClientError(r, err, map[string]string{
			"code":       constraintErr.Code,
			"constraint": constraintErr.Constraint,
		})
		app.errorResponse(w, r, http.StatusConflict, constraintErr.Error())
	case errors.As(err, &queryErr):
		app.logClientError(r, err, map[string]string{
			"code": queryErr.Code,
		})
		app.errorResponse(w, r, http.StatusBadRequest, queryErr.Error())
	case errors.As(err, &remoteErr):
		app.upstreamErrorResponse(w, r, remoteErr)
	default:
		app.serverErrorResponse(w, r, err)
	}
}
