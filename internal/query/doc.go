// Package query derives read-only views from a vocabulary record set: the
// review queue, the due-today badge count, aggregate statistics and the
// human-readable level and next-review labels. Nothing here is cached; every
// function recomputes its answer from the records it is given.
package query
