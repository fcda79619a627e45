// Package notify delivers document status transition events to
// interested parties: the structured log, in-process channels, or a
// RabbitMQ queue. Delivery is best-effort; a failed or slow notifier
// never stalls the pipeline.
package notify
