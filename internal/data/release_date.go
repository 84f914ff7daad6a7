package data

import (
	"errors"
	"strconv"
	"time"
)

// ErrInvalidReleaseDateFormat is returned when a release date is neither
// "YYYY-MM-DD" nor an RFC 3339 timestamp.
var ErrInvalidReleaseDateFormat = errors.New("invalid release date format")

const releaseDateLayout = "2006-01-02"

// ReleaseDate is a calendar date, encoded in JSON as "YYYY-MM-DD".
type ReleaseDate time.Time

// ParseReleaseDate accepts "1977-05-25" as well as full RFC 3339 timestamps.
func ParseReleaseDate(s string) (ReleaseDate, error) {
	t, err := time.Parse(releaseDateLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return ReleaseDate{}, ErrInvalidReleaseDateFormat
		}
	}
	y, m, d := t.Date()
	return ReleaseDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)), nil
}

// Time returns the date as midnight UTC.
func (d ReleaseDate) Time() time.Time {
	return time.Time(d)
}

func (d ReleaseDate) IsZero() bool {
	return time.Time(d).IsZero()
}

func (d ReleaseDate) String() string {
	return time.Time(d).Format(releaseDateLayout)
}

// MarshalJSON writes the date as a quoted "YYYY-MM-DD" string.
func (d ReleaseDate) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON must use a pointer receiver since it modifies d.
func (d *ReleaseDate) UnmarshalJSON(jsonValue []byte) error {
	unquoted, err := strconv.Unquote(string(jsonValue))
	if err != nil {
		return ErrInvalidReleaseDateFormat
	}

	parsed, err := ParseReleaseDate(unquoted)
	if err != nil {
		return err
	}

	*d = parsed
	return nil
}
