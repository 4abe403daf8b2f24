// Package observability provides logging, event recording, metrics and
// balance alerting for dayflow. Events are persisted as JSON Lines and
// metrics are derived on demand from the event log.
package observability
