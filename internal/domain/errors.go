package domain

import "errors"

var (
	// ErrConnection is returned when the database cannot be reached or rejects the credentials.
	ErrConnection = errors.New("connection failed")

	// ErrNotFound is returned when a table (or row) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrQuery is returned for malformed SQL, missing join keys and rejected statements.
	ErrQuery = errors.New("query failed")
)
