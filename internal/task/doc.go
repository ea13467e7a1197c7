// Package task runs background work off the request path. A bounded
// in-memory TaskQueue feeds a WorkerPool; the ReviewEventHandler turns
// review.recorded events into UserStatsTasks, and the Scheduler runs the
// daily streak expiry sweep. Work here is best effort: a full queue drops
// the task with a warning.
package task
