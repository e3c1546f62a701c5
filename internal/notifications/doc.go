// Package notifications publishes job results to an ntfy topic.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers never need to check whether notifications are enabled. Delivery
// failures are returned to the caller, which logs and continues: a lost
// notification never fails a job.
package notifications
