// Package progress records review outcomes and reports a user's learning
// progress. It combines the scheduling rules in domain/srs with the progress,
// word and user-stats stores.
package progress
