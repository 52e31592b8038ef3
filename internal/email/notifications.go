package email

import (
	"context"

	"github.com/rs/zerolog/log"

	"contentboard/internal/config"
	"contentboard/internal/notify"
)

// mailer is the subset of Service the notifier uses.
type mailer interface {
	IsEnabled() bool
	SendAsync(to []string, subject, htmlBody, textBody string)
}

// Notifier turns notifications into emails. It implements notify.Sender.
type Notifier struct {
	service   mailer
	templates *Templates
	cfg       *config.Config
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg *config.Config) *Notifier {
	return &Notifier{
		service:   NewService(cfg),
		templates: NewTemplates(cfg),
		cfg:       cfg,
	}
}

// Notify renders and sends n asynchronously. Notifications without a
// recipient, of an unknown type, or switched off in config are dropped.
func (n *Notifier) Notify(_ context.Context, note notify.Notification) {
	if !n.service.IsEnabled() || note.Recipient == "" {
		return
	}

	var subject, htmlBody, textBody string
	switch note.Type {
	case notify.TypeApprovalRequested:
		if !n.cfg.EmailNotifyClientOnIssue {
			return
		}
		subject, htmlBody, textBody = n.templates.ApprovalRequested(note.Data)
	case notify.TypeApprovalResolved:
		if !n.cfg.EmailNotifyTeamOnResolve {
			return
		}
		subject, htmlBody, textBody = n.templates.ApprovalResolved(note.Data)
	case notify.TypeContentMoved:
		if !n.cfg.EmailNotifyAssigneeOnMove {
			return
		}
		subject, htmlBody, textBody = n.templates.ContentMoved(note.Data)
	default:
		log.Warn().Str("type", note.Type).Msg("unknown notification type")
		return
	}

	n.service.SendAsync([]string{note.Recipient}, subject, htmlBody, textBody)
}
