package authcore

import (
	"context"
	"io"
	"time"

	"github.com/matchday/authcore/internal/audit"
)

// AuditEvent is the event model delivered to audit sinks.
type AuditEvent = audit.Event

// AuditAction classifies an audit event.
type AuditAction = audit.Action

// AuditSink receives audit events. Implementations must not block
// indefinitely; failures stay inside the sink.
type AuditSink = audit.Sink

// Audit action kinds re-exported for sink implementations.
const (
	AuditActionCreate                 = audit.ActionCreate
	AuditActionUpdate                 = audit.ActionUpdate
	AuditActionDelete                 = audit.ActionDelete
	AuditActionLogin                  = audit.ActionLogin
	AuditActionLogout                 = audit.ActionLogout
	AuditActionLoginFailed            = audit.ActionLoginFailed
	AuditActionPasswordChanged        = audit.ActionPasswordChanged
	AuditActionPasswordResetRequested = audit.ActionPasswordResetRequested
	AuditActionEmailConfirmed         = audit.ActionEmailConfirmed
	AuditActionUserLockedOut          = audit.ActionUserLockedOut
	AuditActionUserUnlocked           = audit.ActionUserUnlocked
	AuditActionRoleAssigned           = audit.ActionRoleAssigned
	AuditActionRoleRemoved            = audit.ActionRoleRemoved
	AuditActionView                   = audit.ActionView
	AuditActionSystemEvent            = audit.ActionSystemEvent
)

// NewJSONAuditSink returns a sink writing one JSON event per line to w.
func NewJSONAuditSink(w io.Writer) AuditSink {
	return audit.NewJSONWriterSink(w)
}

// NewChannelAuditSink returns a sink buffering events in a channel,
// mainly useful in tests and embedding applications.
func NewChannelAuditSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

const auditEntityAccount = "Account"

// emitAudit stamps context metadata on the event and hands it to the
// async dispatcher. Never fails the calling flow.
func (c *Coordinator) emitAudit(ctx context.Context, event AuditEvent) {
	if c.audit == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = userAgentFromContext(ctx)
	}
	c.audit.Emit(ctx, event)
}

// AuditDropped reports how many audit events were discarded because the
// dispatch buffer was full.
func (c *Coordinator) AuditDropped() uint64 {
	return c.audit.Dropped()
}
