// Package seed fills the movie store from the external film catalog.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hafizmfadli/movies-api/internal/catalog"
	"github.com/hafizmfadli/movies-api/internal/data"
)

// FranchiseName is given to every seeded movie.
const FranchiseName = "Star Wars"

// ErrSeedingFailed wraps errors that are neither catalog failures nor
// per-movie creation failures.
var ErrSeedingFailed = errors.New("error seeding movies")

// Catalog is the source of films to seed.
type Catalog interface {
	Films(ctx context.Context) (*catalog.Films, error)
}

// MovieCreator creates one movie, connecting-or-creating its references.
type MovieCreator interface {
	Insert(ctx context.Context, input data.MovieInput) (*data.Movie, error)
}

// AggregateError is returned when at least one film could not be created.
// Errs holds the failures in catalog order.
type AggregateError struct {
	Errs []error
}

func (e *AggregateError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, ", ")
}

func (e *AggregateError) Unwrap() []error {
	return e.Errs
}

// Seeder creates one movie per catalog film.
type Seeder struct {
	catalog     Catalog
	movies      MovieCreator
	concurrency int
}

// New returns a Seeder. concurrency caps the number of simultaneous inserts;
// zero or less means one goroutine per film.
func New(c Catalog, movies MovieCreator, concurrency int) *Seeder {
	return &Seeder{catalog: c, movies: movies, concurrency: concurrency}
}

// MovieInput maps a catalog film to a creation request.
func MovieInput(film catalog.Film) (data.MovieInput, error) {
	releaseDate, err := data.ParseReleaseDate(film.ReleaseDate)
	if err != nil {
		return data.MovieInput{}, fmt.Errorf("%s: %w", film.Title, err)
	}

	return data.MovieInput{
		Title:          film.Title,
		OpeningCrawl:   film.OpeningCrawl,
		ReleaseDate:    releaseDate,
		DirectorsNames: strings.Split(film.Director, ", "),
		ProducersNames: strings.Split(film.Producer, ", "),
		FranchiseName:  FranchiseName,
	}, nil
}

// Run fetches the catalog and creates every film concurrently. It waits for
// all creations to finish, then returns the movies in catalog order, or an
// *AggregateError when any creation failed. Catalog remote failures are
// returned unchanged and no creation is attempted.
func (s *Seeder) Run(ctx context.Context) ([]*data.Movie, error) {
	films, err := s.catalog.Films(ctx)
	if err != nil {
		var remoteErr *catalog.RemoteError
		if errors.As(err, &remoteErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSeedingFailed, err)
	}
	if films == nil {
		return []*data.Movie{}, nil
	}

	movies := make([]*data.Movie, len(films.Results))
	errs := make([]error, len(films.Results))

	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}

	for i, film := range films.Results {
		input, err := MovieInput(film)
		if err != nil {
			errs[i] = err
			continue
		}

		// Every goroutine returns nil so that Wait settles all of them;
		// failures are kept per index.
		i := i
		g.Go(func() error {
			movie, err := s.movies.Insert(ctx, input)
			if err != nil {
				errs[i] = err
				return nil
			}
			movies[i] = movie
			return nil
		})
	}

	_ = g.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return nil, &AggregateError{Errs: failed}
	}

	return movies, nil
}
