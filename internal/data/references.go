package data

import (
	"context"
	"database/sql"
	"fmt"
)

// Reference is a name-keyed entity shared between movies: a director, a
// producer or a franchise.
type Reference struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// referenceTable describes where a kind of Reference lives. link and column
// are empty for references held directly on the movies row.
type referenceTable struct {
	table  string
	link   string
	column string
}

var (
	directorsTable  = referenceTable{table: "directors", link: "movies_directors", column: "director_id"}
	producersTable  = referenceTable{table: "producers", link: "movies_producers", column: "producer_id"}
	franchisesTable = referenceTable{table: "franchises"}
	rolesTable      = referenceTable{table: "roles"}
)

// connectOrCreate returns the row of t named name, inserting it first when it
// does not exist. The no-op DO UPDATE makes RETURNING yield the existing row.
func connectOrCreate(ctx context.Context, tx *sql.Tx, t referenceTable, name string) (Reference, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name`, t.table)

	var ref Reference
	err := tx.QueryRowContext(ctx, query, name).Scan(&ref.ID, &ref.Name)
	if err != nil {
		return Reference{}, classifyError(err)
	}
	return ref, nil
}

// linkReferences connects-or-creates every name and links it to the movie.
func linkReferences(ctx context.Context, tx *sql.Tx, t referenceTable, movieID int64, names []string) ([]Reference, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (movie_id, %s)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, t.link, t.column)

	refs := make([]Reference, 0, len(names))
	for _, name := range names {
		ref, err := connectOrCreate(ctx, tx, t, name)
		if err != nil {
			return nil, err
		}

		_, err = tx.ExecContext(ctx, query, movieID, ref.ID)
		if err != nil {
			return nil, classifyError(err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// replaceReferences drops every existing link of t for the movie before
// linking names, so the set is replaced rather than merged.
func replaceReferences(ctx context.Context, tx *sql.Tx, t referenceTable, movieID int64, names []string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE movie_id = $1`, t.link)

	_, err := tx.ExecContext(ctx, query, movieID)
	if err != nil {
		return classifyError(err)
	}

	_, err = linkReferences(ctx, tx, t, movieID, names)
	return err
}
