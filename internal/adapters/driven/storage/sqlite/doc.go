// Package sqlite provides the SQLite-backed sample database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Every project keeps its own database file
// next to its binaries:
//
//   - samples: one row per stored file, keyed by sha256
//   - tags and sample_tags: the tag vocabulary and its many-to-many link
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
