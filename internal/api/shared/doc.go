// Package shared holds request decoding, validation, JSON responses and
// request context helpers used by the api package and its middleware.
package shared
