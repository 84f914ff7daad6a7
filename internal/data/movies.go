package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/hafizmfadli/movies-api/internal/validator"
)

type Movie struct {
	// Unique ID
	ID int64 `json:"id"`
	// Timestamp for when the movie is added to our database
	CreatedAt time.Time `json:"-"`
	// Movie title
	Title string `json:"title"`
	// Opening crawl (synopsis)
	OpeningCrawl string      `json:"opening_crawl"`
	ReleaseDate  ReleaseDate `json:"release_date"`
	Directors    []Reference `json:"directors"`
	Producers    []Reference `json:"producers"`
	Franchise    Reference   `json:"franchise"`
	// Version number starts at 1 and will be incremented each time the movie is updated
	Version int32 `json:"version"`
}

// MovieInput is everything needed to create a movie. Directors, producers and
// the franchise are given by name and connected-or-created on insert.
type MovieInput struct {
	Title          string
	OpeningCrawl   string
	ReleaseDate    ReleaseDate
	DirectorsNames []string
	ProducersNames []string
	FranchiseName  string
}

// MovieUpdate carries a partial update. Nil fields are left untouched; a
// non-nil name list replaces the whole set.
type MovieUpdate struct {
	ID             int64
	Title          *string
	OpeningCrawl   *string
	ReleaseDate    *ReleaseDate
	DirectorsNames []string
	ProducersNames []string
	FranchiseName  *string
}

func validateTitle(v *validator.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(validator.LengthBetween(title, 2, 150), "title", "must be between 2 and 150 characters long")
}

func validateOpeningCrawl(v *validator.Validator, crawl string) {
	v.Check(crawl != "", "opening_crawl", "must be provided")
	v.Check(validator.LengthBetween(crawl, 15, 700), "opening_crawl", "must be between 15 and 700 characters long")
}

func validateNames(v *validator.Validator, key string, names []string) {
	v.Check(names != nil, key, "must be provided")
	v.Check(len(names) >= 1, key, "must contain at least 1 name")
	v.Check(validator.EachLengthBetween(names, 2, 20), key, "each name must be between 2 and 20 characters long")
	v.Check(validator.Unique(names), key, "must not contain duplicate values")
}

func validateFranchiseName(v *validator.Validator, name string) {
	v.Check(validator.LengthBetween(name, 2, 20), "franchise_name", "must be between 2 and 20 characters long")
}

// ValidateMovieInput checks a creation request.
func ValidateMovieInput(v *validator.Validator, input MovieInput) {
	validateTitle(v, input.Title)
	validateOpeningCrawl(v, input.OpeningCrawl)
	v.Check(!input.ReleaseDate.IsZero(), "release_date", "must be provided")
	validateNames(v, "directors_names", input.DirectorsNames)
	validateNames(v, "producers_names", input.ProducersNames)
	validateFranchiseName(v, input.FranchiseName)
}

// ValidateMovieUpdate checks only the fields present in the update.
func ValidateMovieUpdate(v *validator.Validator, update MovieUpdate) {
	if update.Title != nil {
		validateTitle(v, *update.Title)
	}
	if update.OpeningCrawl != nil {
		validateOpeningCrawl(v, *update.OpeningCrawl)
	}
	if update.ReleaseDate != nil {
		v.Check(!update.ReleaseDate.IsZero(), "release_date", "must be provided")
	}
	if update.DirectorsNames != nil {
		validateNames(v, "directors_names", update.DirectorsNames)
	}
	if update.ProducersNames != nil {
		validateNames(v, "producers_names", update.ProducersNames)
	}
	if update.FranchiseName != nil {
		validateFranchiseName(v, *update.FranchiseName)
	}
}

// MovieModel wraps a sql.DB connection pool.
type MovieModel struct {
	DB *sql.DB
}

// movieColumns selects a movie with its franchise and its directors and
// producers aggregated as JSON arrays.
const movieColumns = `
	m.id, m.created_at, m.title, m.opening_crawl, m.release_date, m.version,
	f.id, f.name,
	COALESCE((SELECT json_agg(json_build_object('id', d.id, 'name', d.name) ORDER BY d.id)
		FROM directors d JOIN movies_directors md ON md.director_id = d.id
		WHERE md.movie_id = m.id), '[]'),
	COALESCE((SELECT json_agg(json_build_object('id', p.id, 'name', p.name) ORDER BY p.id)
		FROM producers p JOIN movies_producers mp ON mp.producer_id = p.id
		WHERE mp.movie_id = m.id), '[]')`

// movieDest returns the scan destinations matching movieColumns. The caller
// must pass the two JSON buffers to decodeReferences after scanning.
func movieDest(movie *Movie, releaseDate *time.Time, directors, producers *[]byte) []any {
	return []any{
		&movie.ID, &movie.CreatedAt, &movie.Title, &movie.OpeningCrawl, releaseDate, &movie.Version,
		&movie.Franchise.ID, &movie.Franchise.Name,
		directors, producers,
	}
}

func decodeReferences(movie *Movie, releaseDate time.Time, directors, producers []byte) error {
	movie.ReleaseDate = ReleaseDate(releaseDate.UTC())

	if err := json.Unmarshal(directors, &movie.Directors); err != nil {
		return fmt.Errorf("decode directors: %w", err)
	}
	if err := json.Unmarshal(producers, &movie.Producers); err != nil {
		return fmt.Errorf("decode producers: %w", err)
	}
	return nil
}

// Insert creates a movie and connects-or-creates its franchise, directors and
// producers in one transaction.
func (m MovieModel) Insert(ctx context.Context, input MovieInput) (*Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	franchise, err := connectOrCreate(ctx, tx, franchisesTable, input.FranchiseName)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO movies (title, opening_crawl, release_date, franchise_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version`

	movie := &Movie{
		Title:        input.Title,
		OpeningCrawl: input.OpeningCrawl,
		ReleaseDate:  input.ReleaseDate,
		Franchise:    franchise,
	}

	args := []any{input.Title, input.OpeningCrawl, input.ReleaseDate.Time(), franchise.ID}
	err = tx.QueryRowContext(ctx, query, args...).Scan(&movie.ID, &movie.CreatedAt, &movie.Version)
	if err != nil {
		return nil, classifyError(err)
	}

	movie.Directors, err = linkReferences(ctx, tx, directorsTable, movie.ID, input.DirectorsNames)
	if err != nil {
		return nil, err
	}

	movie.Producers, err = linkReferences(ctx, tx, producersTable, movie.ID, input.ProducersNames)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return movie, nil
}

// Get returns a specific movie based on its id.
func (m MovieModel) Get(ctx context.Context, id int64) (*Movie, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return getMovie(ctx, m.DB, id)
}

func getMovie(ctx context.Context, q rowQueryer, id int64) (*Movie, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM movies m
		JOIN franchises f ON f.id = m.franchise_id
		WHERE m.id = $1`, movieColumns)

	var (
		movie                Movie
		releaseDate          time.Time
		directors, producers []byte
	)

	err := q.QueryRowContext(ctx, query, id).Scan(movieDest(&movie, &releaseDate, &directors, &producers)...)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, classifyError(err)
		}
	}

	if err := decodeReferences(&movie, releaseDate, directors, producers); err != nil {
		return nil, err
	}

	return &movie, nil
}

// GetAll returns a page of movies plus pagination metadata.
func (m MovieModel) GetAll(ctx context.Context, filters Filters) ([]*Movie, Metadata, error) {
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), %s
		FROM movies m
		JOIN franchises f ON f.id = m.franchise_id
		ORDER BY m.%s %s, m.id ASC
		LIMIT $1 OFFSET $2`, movieColumns, filters.sortColumn(), filters.sortDirection())

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, query, filters.limit(), filters.offset())
	if err != nil {
		return nil, Metadata{}, classifyError(err)
	}
	defer rows.Close()

	totalRecords := 0
	movies := []*Movie{}

	for rows.Next() {
		var (
			movie                Movie
			releaseDate          time.Time
			directors, producers []byte
		)

		dest := append([]any{&totalRecords}, movieDest(&movie, &releaseDate, &directors, &producers)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, Metadata{}, classifyError(err)
		}

		if err := decodeReferences(&movie, releaseDate, directors, producers); err != nil {
			return nil, Metadata{}, err
		}

		movies = append(movies, &movie)
	}

	if err = rows.Err(); err != nil {
		return nil, Metadata{}, classifyError(err)
	}

	metadata := calculateMetadata(totalRecords, filters.Limit, filters.Offset)

	return movies, metadata, nil
}

// Update applies a partial update. Reference sets given in the update replace
// the existing ones.
func (m MovieModel) Update(ctx context.Context, update MovieUpdate) (*Movie, error) {
	if update.ID < 1 {
		return nil, ErrRecordNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var franchiseID *int64
	if update.FranchiseName != nil {
		franchise, err := connectOrCreate(ctx, tx, franchisesTable, *update.FranchiseName)
		if err != nil {
			return nil, err
		}
		franchiseID = &franchise.ID
	}

	var releaseDate *time.Time
	if update.ReleaseDate != nil {
		t := update.ReleaseDate.Time()
		releaseDate = &t
	}

	query := `
		UPDATE movies
		SET title = COALESCE($1, title),
			opening_crawl = COALESCE($2, opening_crawl),
			release_date = COALESCE($3, release_date),
			franchise_id = COALESCE($4, franchise_id),
			version = version + 1
		WHERE id = $5
		RETURNING version`

	args := []any{update.Title, update.OpeningCrawl, releaseDate, franchiseID, update.ID}

	var version int32
	err = tx.QueryRowContext(ctx, query, args...).Scan(&version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, classifyError(err)
		}
	}

	if update.DirectorsNames != nil {
		if err := replaceReferences(ctx, tx, directorsTable, update.ID, update.DirectorsNames); err != nil {
			return nil, err
		}
	}

	if update.ProducersNames != nil {
		if err := replaceReferences(ctx, tx, producersTable, update.ID, update.ProducersNames); err != nil {
			return nil, err
		}
	}

	movie, err := getMovie(ctx, tx, update.ID)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return movie, nil
}

// Delete removes a movie; its director and producer links cascade.
func (m MovieModel) Delete(ctx context.Context, id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	query := `
		DELETE FROM movies
		WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, query, id)
	if err != nil {
		return classifyError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}
