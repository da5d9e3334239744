// Package store defines the persistence contract of the vocabulary engine.
// It holds the Backend interface implemented by the platform packages, the
// sentinel errors every backend maps its failures onto, and helpers for
// running SQL work inside a transaction.
package store
