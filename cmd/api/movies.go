package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hafizmfadli/movies-api/internal/catalog"
	"github.com/hafizmfadli/movies-api/internal/data"
	"github.com/hafizmfadli/movies-api/internal/seed"
	"github.com/hafizmfadli/movies-api/internal/validator"
)

// createMovieHandler for the "POST /v1/movies" endpoint.
func (app *application) createMovieHandler(w http.ResponseWriter, r *http.Request) {
	// anonymous struct to hold information that we expect to be in the HTTP request body.
	var input struct {
		Title          string           `json:"title"`
		OpeningCrawl   string           `json:"opening_crawl"`
		ReleaseDate    data.ReleaseDate `json:"release_date"`
		DirectorsNames []string         `json:"directors_names"`
		ProducersNames []string         `json:"producers_names"`
		FranchiseName  string           `json:"franchise_name"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	movieInput := data.MovieInput{
		Title:          input.Title,
		OpeningCrawl:   input.OpeningCrawl,
		ReleaseDate:    input.ReleaseDate,
		DirectorsNames: input.DirectorsNames,
		ProducersNames: input.ProducersNames,
		FranchiseName:  input.FranchiseName,
	}

	v := validator.New()

	if data.ValidateMovieInput(v, movieInput); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	movie, err := app.models.Movies.Insert(r.Context(), movieInput)
	if err != nil {
		app.classifiedErrorResponse(w, r, err)
		return
	}

	// Let the client know which URL the new movie lives at.
	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/v1/movies/%d", movie.ID))

	err = app.writeJSON(w, http.StatusCreated, envelope{"movie": movie}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showMovieHandler for the "GET /v1/movies/:id" endpoint.
func (app *application) showMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	movie, err := app.models.Movies.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.movieNotFoundResponse(w, r, id)
		default:
			app.classifiedErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"movie": movie}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listMoviesHandler for the "GET /v1/movies" endpoint. The window is
// controlled by the limit and offset query parameters.
func (app *application) listMoviesHandler(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	qs := r.URL.Query()

	filters := data.Filters{
		Limit:  app.readInt(qs, "limit", 10, v),
		Offset: app.readInt(qs, "offset", 0, v),
		Sort:   app.readString(qs, "sort", "id"),
		SortSafelist: []string{
			"id", "title", "release_date",
			"-id", "-title", "-release_date",
		},
	}

	if data.ValidateFilters(v, filters); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	movies, metadata, err := app.models.Movies.GetAll(r.Context(), filters)
	if err != nil {
		app.classifiedErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"movies": movies, "metadata": metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateMovieHandler for the "PUT /v1/movies/:id" endpoint. Every field is
// optional; name lists replace the current ones when present.
func (app *application) updateMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	// Pointer fields tell "absent" apart from a zero value.
	var input struct {
		Title          *string           `json:"title"`
		OpeningCrawl   *string           `json:"opening_crawl"`
		ReleaseDate    *data.ReleaseDate `json:"release_date"`
		DirectorsNames []string          `json:"directors_names"`
		ProducersNames []string          `json:"producers_names"`
		FranchiseName  *string           `json:"franchise_name"`
	}

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	update := data.MovieUpdate{
		ID:             id,
		Title:          input.Title,
		OpeningCrawl:   input.OpeningCrawl,
		ReleaseDate:    input.ReleaseDate,
		DirectorsNames: input.DirectorsNames,
		ProducersNames: input.ProducersNames,
		FranchiseName:  input.FranchiseName,
	}

	v := validator.New()

	if data.ValidateMovieUpdate(v, update); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	movie, err := app.models.Movies.Update(r.Context(), update)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.movieNotFoundResponse(w, r, id)
		default:
			app.classifiedErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"movie": movie}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteMovieHandler for the "DELETE /v1/movies/:id" endpoint.
func (app *application) deleteMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	err = app.models.Movies.Delete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.movieNotFoundResponse(w, r, id)
		default:
			app.classifiedErrorResponse(w, r, err)
		}
		return
	}

	env := envelope{
		"message": fmt.Sprintf("Movie with id %d was deleted successfully", id),
		"status":  "success",
	}

	err = app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// seedMoviesHandler for the "POST /v1/movies/seed" endpoint. It imports the
// whole film catalog and answers with every created movie, or with a single
// error when anything went wrong.
func (app *application) seedMoviesHandler(w http.ResponseWriter, r *http.Request) {
	movies, err := app.seeder.Run(r.Context())
	if err != nil {
		app.metrics.seedFailures.Inc()

		var (
			remoteErr    *catalog.RemoteError
			aggregateErr *seed.AggregateError
		)

		switch {
		case errors.As(err, &remoteErr):
			app.upstreamErrorResponse(w, r, remoteErr)
		case errors.As(err, &aggregateErr):
			app.classifiedErrorResponse(w, r, aggregateErr)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.metrics.seededMovies.Add(float64(len(movies)))

	properties := map[string]string{
		"count":      fmt.Sprint(len(movies)),
		"request_id": contextGetRequestID(r),
	}
	if claims := app.contextGetClaims(r); claims != nil {
		properties["user_id"] = claims.Subject
		properties["user_email"] = claims.Email
	}
	app.logger.PrintInfo("movies seeded", properties)

	err = app.writeJSON(w, http.StatusCreated, envelope{"movies": movies}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
