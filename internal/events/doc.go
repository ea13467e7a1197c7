// Package events lets services announce what happened without knowing who
// reacts. The progress service emits a review.recorded event after each
// committed review; the task package turns it into background work.
package events
