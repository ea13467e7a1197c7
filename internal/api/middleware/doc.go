// Package middleware provides the HTTP middleware for the progress API:
// bearer authentication and request tracing.
package middleware
