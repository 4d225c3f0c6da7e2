// Package mail abstracts the inbound mailbox the triage pipeline drains.
package mail

import (
	"context"

	"github.com/inboxtriage/backend/internal/models"
)

// Mailbox is a remote inbox the pipeline can drain. Outbound delivery stays
// simulated at the API layer, so there is no send operation here.
type Mailbox interface {
	// FetchSupportEmails returns unread support-related emails, up to max.
	FetchSupportEmails(ctx context.Context, max int) ([]models.RawEmail, error)
	// MarkRead flags a fetched message as read so the next fetch skips it.
	MarkRead(ctx context.Context, messageID string) error
}
