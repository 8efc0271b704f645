// Package store provides persistent storage for inkwell using SQLite.
//
// The Store interface covers note CRUD plus substring search, and
// SQLiteStore implements it on modernc.org/sqlite with WAL mode and
// automatic schema creation. The special path ":memory:" opens an
// in-memory database, which the tests and the dev loop rely on.
//
// Lookup misses are reported as the ErrNotFound sentinel so callers can
// distinguish "absent" from "broken" without string matching.
package store
