package data

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ConstraintError reports an integrity constraint violation raised by
// PostgreSQL (SQLSTATE class 23): duplicate unique values, missing foreign
// keys, failed check constraints.
type ConstraintError struct {
	Code       string
	Constraint string
	Message    string
	Detail     string
}

func (e *ConstraintError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

// QueryError reports a statement PostgreSQL refused to run because of bad
// input data or a malformed query (SQLSTATE classes 22 and 42).
type QueryError struct {
	Code    string
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid query: %s", e.Message)
}

// classifyError converts driver errors into ConstraintError or QueryError.
// Anything else is returned unchanged.
func classifyError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code.Class() {
	case "23":
		return &ConstraintError{
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Message:    pqErr.Message,
			Detail:     pqErr.Detail,
		}
	case "22", "42":
		return &QueryError{
			Code:    string(pqErr.Code),
			Message: pqErr.Message,
		}
	}
	return err
}
