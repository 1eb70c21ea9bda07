// Package sqlite provides SQLite-backed storage for the token pair and
// scheduler state.
//
// The database lives at <data_dir>/hh-autoupdate.db and is opened in WAL
// mode. Schema changes are embedded SQL migrations applied on open.
package sqlite
