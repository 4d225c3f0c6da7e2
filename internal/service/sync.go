package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/inboxtriage/backend/internal/mail"
)

// defaultFetchLimit bounds how many unread messages one sync pulls.
const defaultFetchLimit = 50

// Syncer drains a remote mailbox through the pipeline. Messages are marked
// read only after they have been persisted (or identified as duplicates), so
// a crash mid-sync re-fetches rather than drops mail.
type Syncer struct {
	mailbox  mail.Mailbox
	pipeline *Pipeline
	logger   zerolog.Logger
}

func NewSyncer(mailbox mail.Mailbox, pipeline *Pipeline, logger zerolog.Logger) *Syncer {
	return &Syncer{mailbox: mailbox, pipeline: pipeline, logger: logger}
}

// Sync fetches unread support emails, runs each through the pipeline, and
// marks the handled ones read.
func (s *Syncer) Sync(ctx context.Context) (BatchSummary, error) {
	raws, err := s.mailbox.FetchSupportEmails(ctx, defaultFetchLimit)
	if err != nil {
		return BatchSummary{}, err
	}

	summary := BatchSummary{}
	for _, raw := range raws {
		item, err := s.pipeline.ProcessNewEmail(ctx, raw)
		if err != nil {
			s.logger.Error().Err(err).Str("message_id", raw.MessageID).Msg("failed to process fetched email")
			summary.add(item)
			continue
		}
		summary.add(item)

		if err := s.mailbox.MarkRead(ctx, raw.MessageID); err != nil {
			// Leaving it unread means the next sync retries; the duplicate
			// check makes that retry a no-op.
			s.logger.Warn().Err(err).Str("message_id", raw.MessageID).Msg("failed to mark message read")
		}
	}

	s.logger.Info().
		Int("processed", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("mailbox sync complete")
	return summary, nil
}
