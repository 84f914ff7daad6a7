package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hafizmfadli/movies-api/internal/validator"
)

// Role is the authorization role carried by a user and by their tokens.
type Role string

const (
	RoleRegular Role = "regular"
	RoleAdmin   Role = "admin"
)

// Roles lists every known role.
var Roles = []Role{RoleRegular, RoleAdmin}

func (r Role) Valid() bool {
	return validator.In(r, Roles...)
}

const bcryptCost = 12

type User struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"-"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  password  `json:"-"`
	Role      Role      `json:"role"`
}

// password keeps the plaintext only long enough to validate it. plaintext is
// a pointer so that "not set" differs from "empty".
type password struct {
	plaintext *string
	hash      []byte
}

// Set calculates the bcrypt hash of a plaintext password.
func (p *password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcryptCost)
	if err != nil {
		return err
	}

	p.plaintext = &plaintextPassword
	p.hash = hash

	return nil
}

// Matches checks whether the provided plaintext password matches the hashed
// password stored in the struct.
func (p *password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(p.hash, []byte(plaintextPassword))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}

	return true, nil
}

func ValidateEmail(v *validator.Validator, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(validator.Matches(email, validator.EmailRX), "email", "must be a valid email address")
}

func ValidatePasswordPlaintext(v *validator.Validator, password string) {
	v.Check(password != "", "password", "must be provided")
	v.Check(validator.LengthBetween(password, 6, 30), "password", "must be between 6 and 30 characters long")
}

// ValidateUserProfile checks everything about a user except the password.
// Sign-up runs it together with ValidatePasswordPlaintext before hashing, since
// bcrypt rejects plaintexts longer than 72 bytes.
func ValidateUserProfile(v *validator.Validator, user *User) {
	v.Check(user.Name != "", "name", "must be provided")
	v.Check(validator.LengthBetween(user.Name, 2, 30), "name", "must be between 2 and 30 characters long")

	ValidateEmail(v, user.Email)

	v.Check(user.Role.Valid(), "role", "must be one of regular or admin")
}

// ValidateUser checks a user whose password has already been set.
func ValidateUser(v *validator.Validator, user *User) {
	ValidateUserProfile(v, user)

	if user.Password.plaintext != nil {
		ValidatePasswordPlaintext(v, *user.Password.plaintext)
	}

	// A nil hash means Set was never called; that is a bug in our code rather
	// than a client error.
	if user.Password.hash == nil {
		panic("missing password hash for user")
	}
}

// UserModel wraps a sql.DB connection pool.
type UserModel struct {
	DB *sql.DB
}

// Insert creates the user, connecting-or-creating its role by name.
func (m UserModel) Insert(ctx context.Context, user *User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	role, err := connectOrCreate(ctx, tx, rolesTable, string(user.Role))
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (name, email, password_hash, role_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	args := []any{user.Name, user.Email, user.Password.hash, role.ID}

	err = tx.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		err = classifyError(err)
		var constraintErr *ConstraintError
		if errors.As(err, &constraintErr) && constraintErr.Constraint == "users_email_key" {
			return ErrDuplicateEmail
		}
		return err
	}

	return tx.Commit()
}

// GetByEmail returns the user with the given email, including its password
// hash, or ErrRecordNotFound.
func (m UserModel) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT u.id, u.created_at, u.name, u.email, u.password_hash, r.name
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.email = $1`

	var user User

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.CreatedAt,
		&user.Name,
		&user.Email,
		&user.Password.hash,
		&user.Role,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, classifyError(err)
		}
	}

	return &user, nil
}
