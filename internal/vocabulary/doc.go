// Package vocabulary owns the learned-word collection.
//
// A Store holds the full record set in memory behind a mutex and writes the
// whole set through a store.Backend on every mutation. The in-memory set is
// replaced only after the backend accepts the write, so a failed save leaves
// the Store exactly as it was after the last successful one.
//
// Review outcomes are applied with the srs scheduler and read views (due
// queue, due-today count, statistics) are delegated to the query package,
// evaluated at the Store's clock in its configured time zone.
package vocabulary
