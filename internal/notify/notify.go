// Package notify defines the fire-and-forget notification seam used by the
// workflow and approval services. Delivery lives in internal/email.
package notify

import "context"

// Notification types.
const (
	TypeApprovalRequested = "approval_requested"
	TypeApprovalResolved  = "approval_resolved"
	TypeContentMoved      = "content_moved"
)

// Notification is one outbound event. Recipient is an email address and may be
// empty when nobody is subscribed; senders drop those.
type Notification struct {
	Type      string
	Recipient string
	Data      map[string]any
}

// Sender delivers notifications. Implementations must not block the caller
// and never report delivery failures back.
type Sender interface {
	Notify(ctx context.Context, n Notification)
}

// Nop discards every notification.
type Nop struct{}

// Notify implements Sender.
func (Nop) Notify(context.Context, Notification) {}
