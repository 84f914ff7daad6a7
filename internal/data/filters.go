package data

import (
	"strings"

	"github.com/hafizmfadli/movies-api/internal/validator"
)

// Filters holds the limit/offset window and sort order of a list query.
type Filters struct {
	Limit        int
	Offset       int
	Sort         string
	SortSafelist []string
}

// sortColumn check the client-provided Sort field matches one of the entries
// in our safelist and if it does, extract the column name from the Sort field
// by stripping the leading hypen character (if one exists).
func (f Filters) sortColumn() string {
	for _, safeValue := range f.SortSafelist {
		if f.Sort == safeValue {
			return strings.TrimPrefix(f.Sort, "-")
		}
	}
	panic("unsafe sort parameter: " + f.Sort)
}

// sortDirection return the sort direction ("ASC" or "DESC") depending on the prefix character
// of the Sort field.
func (f Filters) sortDirection() string {
	if strings.HasPrefix(f.Sort, "-") {
		return "DESC"
	}
	return "ASC"
}

func (f Filters) limit() int {
	return f.Limit
}

func (f Filters) offset() int {
	return f.Offset
}

// ValidateFilters validate filters value to conform business rules.
// For each invalid filters value will be added as an error to v with
// corresponding key and appropriate message.
func ValidateFilters(v *validator.Validator, f Filters) {
	v.Check(f.Limit > 0, "limit", "must be greater than zero")
	v.Check(f.Limit <= 100, "limit", "must be a maximum of 100")
	v.Check(f.Offset >= 0, "offset", "must be zero or greater")
	v.Check(f.Offset <= 10_000_000, "offset", "must be a maximum of 10 million")
	v.Check(validator.In(f.Sort, f.SortSafelist...), "sort", "invalid sort value")
}

// Metadata struct for holding the pagination metadata.
type Metadata struct {
	Limit        int `json:"limit,omitempty"`
	Offset       int `json:"offset,omitempty"`
	TotalRecords int `json:"total_records,omitempty"`
}

// calculateMetadata returns an empty Metadata when there are no records so
// that the envelope carries no pagination keys at all.
func calculateMetadata(totalRecords, limit, offset int) Metadata {
	if totalRecords == 0 {
		return Metadata{}
	}

	return Metadata{
		Limit:        limit,
		Offset:       offset,
		TotalRecords: totalRecords,
	}
}
