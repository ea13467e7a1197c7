// Package postgres provides PostgreSQL implementations of the store
// interfaces: progress records and the review event log, the read-only word
// lookup, and the per-user stats aggregate. It also embeds the goose
// migrations that create those tables.
package postgres
