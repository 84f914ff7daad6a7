package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/hafizmfadli/movies-api/internal/auth"
	"github.com/hafizmfadli/movies-api/internal/data"
)

// routeRequirements is the authorization policy of every route, keyed by
// "METHOD pattern" exactly as registered below. Routes missing from the
// table require a valid token.
var routeRequirements = auth.Table{
	"GET /v1/healthcheck":   auth.Public(),
	"GET /v1/metrics":       auth.Public(),
	"POST /v1/auth/login":   auth.Public(),
	"POST /v1/auth/sign-up": auth.Public(),
	"GET /v1/movies":        auth.Public(),
	"POST /v1/movies":       auth.RequireRoles(data.RoleAdmin),
	"POST /v1/movies/seed":  auth.RequireRoles(data.RoleAdmin),
	"GET /v1/movies/:id":    auth.RequireRoles(data.RoleAdmin, data.RoleRegular),
	"PUT /v1/movies/:id":    auth.RequireRoles(data.RoleAdmin),
	"DELETE /v1/movies/:id": auth.RequireRoles(data.RoleAdmin),
}

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	// handle registers h behind the authorization gate under the same
	// "METHOD pattern" id the requirement table uses.
	handle := func(method, pattern string, h http.HandlerFunc) {
		router.HandlerFunc(method, pattern, app.authorize(method+" "+pattern, h))
	}

	handle(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)
	handle(http.MethodGet, "/v1/metrics", app.metrics.handler().ServeHTTP)

	handle(http.MethodPost, "/v1/auth/login", app.loginHandler)
	handle(http.MethodPost, "/v1/auth/sign-up", app.signUpHandler)

	handle(http.MethodGet, "/v1/movies", app.listMoviesHandler)
	handle(http.MethodPost, "/v1/movies", app.createMovieHandler)
	handle(http.MethodPost, "/v1/movies/seed", app.seedMoviesHandler)
	handle(http.MethodGet, "/v1/movies/:id", app.showMovieHandler)
	handle(http.MethodPut, "/v1/movies/:id", app.updateMovieHandler)
	handle(http.MethodDelete, "/v1/movies/:id", app.deleteMovieHandler)

	return app.metrics.instrument(app.recoverPanic(app.requestID(app.rateLimitIP(router))))
}
