// Package domain contains the core vocabulary-learning entities: words, the
// per-user progress record that drives spaced repetition, the append-only
// review event log, and the computed learning statistics. It is independent
// of storage and transport.
package domain
