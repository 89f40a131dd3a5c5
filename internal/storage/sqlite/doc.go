// Package sqlite persists validation reports in the flowcheck report
// database. The schema is owned by internal/db; stores here take an open
// *sql.DB that has been migrated.
package sqlite
