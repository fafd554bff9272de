// Package postgres provides PostgreSQL implementations of the store
// interfaces, using database/sql with the pgx driver. All errors are
// passed through MapError so callers only see store sentinel errors.
package postgres
