package domain

import "errors"

var (
	// ErrEmptyQuery is returned when a search is requested without a query.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidOption wraps every other search option validation failure.
	ErrInvalidOption = errors.New("invalid search option")
)
