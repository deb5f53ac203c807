// Package store provides a SQLite-backed reference list source.
//
// Reference lists are stored as one row per list plus one row per item.
// Saving a list replaces all of its items in a single transaction, so
// readers see either the old or the new list, never a mix.
//
// # Ordering
//
// Items are always returned ORDER BY order_index ASC, code ASC, the same
// order metadata.SortItems produces for catalog lists.
//
// # Database Configuration
//
// Set on every connection through go-sqlite3 DSN parameters:
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout: DefaultBusyTimeout unless WithBusyTimeout is given
//   - foreign_keys=ON: Items are deleted with their list
//
// # Migrations
//
// schema.sql is version 0. Each entry of the migration table runs once, in
// its own transaction with its user_version bump.
package store
