// Package store provides a SQLite-backed run log for synthesis dispatches.
//
// Every dispatch, successful or not, is appended as one row of the runs
// table. Rows carry the content hashes of the fragment and system that were
// dispatched, so two runs over identical inputs can be found by hash.
//
// # Ordering
//
// Rows are ordered by seq, an INTEGER assigned by the store on insert.
// Timestamps are never stored. All list queries use
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// # Idempotency
//
// Run ids are unique. Writing a record whose id already exists is a no-op
// that reports the seq of the stored row.
//
// # Layout
//
// The log layout is stamped into PRAGMA user_version. Open refuses a log
// stamped by a newer layout rather than appending rows it cannot describe.
// The connection runs in WAL mode with a five second busy timeout.
//
// The removed_states and result columns hold RFC 8785 canonical JSON
// produced by ir.MarshalCanonical.
package store
