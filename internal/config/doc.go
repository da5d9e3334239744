// Package config handles configuration loading, parsing, and validation
// from a dotenv file, an optional config file and VOCAB_ prefixed
// environment variables. It provides type-safe access to the settings of
// the logger, the storage backend, the schedule and the reminder job.
package config
