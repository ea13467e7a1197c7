// Package config handles configuration loading, parsing, and validation
// from a .env file, an optional YAML file and VOCAB_-prefixed environment
// variables. It provides type-safe access to settings needed by the server,
// the progress endpoints and the background jobs.
package config
