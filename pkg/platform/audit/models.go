package audit

import (
	"context"
	"time"
)

// AuditEvent names an audited linkage action.
type AuditEvent string

const (
	EventLinkageInserted AuditEvent = "linkage_inserted"
	EventLinkageUpdated  AuditEvent = "linkage_updated"
	EventLinkageDeleted  AuditEvent = "linkage_deleted"
	EventLinkageSearched AuditEvent = "linkage_searched"
	// EventLinkageRejected covers requests that never reached a handler.
	EventLinkageRejected AuditEvent = "linkage_rejected"
)

// Event is emitted by the linkage service for every dispatched request. It
// carries no plaintext and no digests: the linkage key is the only record
// reference.
type Event struct {
	Timestamp  time.Time  `json:"timestamp"`
	Action     AuditEvent `json:"action"`
	LinkageKey string     `json:"linkage_key,omitempty"`
	Status     string     `json:"status"`
	Reason     string     `json:"reason,omitempty"`
	RequestID  string     `json:"request_id,omitempty"`
	// ActorID is the authenticated client that issued the request.
	ActorID string `json:"actor_id,omitempty"`
}

// Store is an append-only audit sink.
type Store interface {
	Append(ctx context.Context, event Event) error
}
