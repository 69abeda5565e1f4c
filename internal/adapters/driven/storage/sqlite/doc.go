// Package sqlite provides the SQLite-backed run journal.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Every completed run appends one row with
// its status, the documents it wrote or removed and any notices raised.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The journal lives wherever journal.path points; there is no default, so
// runs are not recorded unless a path is configured.
package sqlite
