// Package watchtower defines the wire types of the push-channel endpoint.
package watchtower

import "time"

// EntityKind says what a status event describes.
type EntityKind string

const (
	KindAgent     EntityKind = "agent"
	KindExecution EntityKind = "execution"
)

// Event names emitted by the server on the status hub.
const (
	TypeStatusUpdate = "status-update"
	TypeConnected    = "connected"
)

// StatusEvent is the canonical, normalized form of a status update. The
// wire form varies in field casing; validation.NormalizeStatusEvent folds
// every variant into this shape before anything else sees it.
type StatusEvent struct {
	EntityID   string     `json:"entity_id" validate:"required"`
	EntityName string     `json:"entity_name,omitempty"`
	Kind       EntityKind `json:"kind" validate:"required,oneof=agent execution"`
	Status     string     `json:"status" validate:"required"`
	Message    string     `json:"message,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`

	// Seq is assigned locally by the projection, monotonically per process.
	// It orders events for display only; causal ordering stays with the
	// server.
	Seq uint64 `json:"seq"`
}

// SubscriptionMessage is the frame sent after connect to select a tenant's
// status stream. ConnectionID correlates one dial across client logs and
// server logs; a reconnect gets a new one.
type SubscriptionMessage struct {
	Action       string `json:"action"` // "subscribe" or "unsubscribe"
	TenantID     string `json:"tenant_id"`
	ConnectionID string `json:"connection_id,omitempty"`
}

// Subscription actions
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)
