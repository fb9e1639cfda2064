// Package queue defines the message queue port (interface).
package queue

import "context"

// Handler processes a message received from the queue.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subjects for sitetree provisioning jobs. Homepage setup is deferred and
// delivered at-least-once; handlers must be idempotent.
const (
	SubjectSiteProvisioned = "sites.provisioned"
	SubjectHomepageSetup   = "sites.homepage"
)

// HomepageSetupPayload is the schema for sites.homepage messages.
type HomepageSetupPayload struct {
	JobID   string `json:"job_id"`
	GroupID int64  `json:"group_id"`
	SiteID  int64  `json:"site_id"`
	Path    string `json:"path"`
}

// SiteProvisionedPayload is the schema for sites.provisioned messages.
type SiteProvisionedPayload struct {
	GroupID int64  `json:"group_id"`
	SiteID  int64  `json:"site_id"`
	Path    string `json:"path"`
}
