// Package sqldb implements the vocabulary backend on a SQL database through
// sqlx. Two dialects are supported: SQLite (mattn/go-sqlite3) for a local
// embedded file and PostgreSQL (pgx stdlib driver).
//
// The schema is created by goose migrations embedded in the binary, one
// directory per dialect. Each Save replaces the whole table inside a single
// transaction; a position column keeps the insertion order of the set.
package sqldb
