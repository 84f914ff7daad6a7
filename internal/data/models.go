package data

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	// ErrRecordNotFound is custom error. We'll return this from our Get() method
	// when looking up a movie that doesn't exist in our database
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned by UserModel.Insert when the email is taken.
	ErrDuplicateEmail = errors.New("duplicate email")
)

// queryTimeout bounds every statement issued by the models.
const queryTimeout = 3 * time.Second

// Models is 'container' which can hold and respresent all your database models
type Models struct {
	Movies interface {
		Insert(ctx context.Context, input MovieInput) (*Movie, error)
		Get(ctx context.Context, id int64) (*Movie, error)
		GetAll(ctx context.Context, filters Filters) ([]*Movie, Metadata, error)
		Update(ctx context.Context, update MovieUpdate) (*Movie, error)
		Delete(ctx context.Context, id int64) error
	}
	Users interface {
		Insert(ctx context.Context, user *User) error
		GetByEmail(ctx context.Context, email string) (*User, error)
	}
}

// NewModels return a Models struct
func NewModels(db *sql.DB) Models {
	return Models{
		Movies: MovieModel{DB: db},
		Users:  UserModel{DB: db},
	}
}

// rowQueryer is satisfied by both *sql.DB and *sql.Tx.
type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
