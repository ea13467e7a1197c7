// Package mocks provides shared test doubles for interfaces used across
// packages. Each mock has a function field per method; when the field is nil
// the mock returns its default values. Calls are recorded so tests can assert
// on arguments.
package mocks
