package service

import (
	"context"
	"errors"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/inboxtriage/backend/internal/ai"
	"github.com/inboxtriage/backend/internal/apperr"
	"github.com/inboxtriage/backend/internal/db"
	"github.com/inboxtriage/backend/internal/models"
)

// urgentBatchLimit caps how many urgent emails one process-urgent call will
// draft responses for.
const urgentBatchLimit = 5

// fallbackReplyContent is persisted when reply drafting fails; the pipeline
// never leaves a processed email without a draft.
const fallbackReplyContent = "Thank you for contacting us. We have received your message and will respond as soon as possible."

type ItemStatus string

const (
	ItemProcessed ItemStatus = "processed"
	ItemSkipped   ItemStatus = "skipped"
	ItemFailed    ItemStatus = "failed"
)

// ItemResult records the outcome of one email within a batch operation.
type ItemResult struct {
	MessageID string     `json:"message_id,omitempty"`
	EmailID   string     `json:"email_id,omitempty"`
	Subject   string     `json:"subject"`
	Status    ItemStatus `json:"status"`
	Reason    string     `json:"reason,omitempty"`
}

// BatchSummary aggregates per-item results for sync, seed, and
// process-urgent.
type BatchSummary struct {
	Processed int          `json:"processed"`
	Skipped   int          `json:"skipped"`
	Failed    int          `json:"failed"`
	Items     []ItemResult `json:"items"`
}

func (b *BatchSummary) add(item ItemResult) {
	switch item.Status {
	case ItemProcessed:
		b.Processed++
	case ItemSkipped:
		b.Skipped++
	case ItemFailed:
		b.Failed++
	}
	b.Items = append(b.Items, item)
}

// Pipeline runs the per-email workflow: classify, extract, tag, persist,
// draft a reply. AI failures degrade to documented defaults; only
// persistence failures abort.
type Pipeline struct {
	store  Store
	ai     ai.Analyzer
	logger zerolog.Logger
	locks  *keyedMutex
}

func NewPipeline(store Store, analyzer ai.Analyzer, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:  store,
		ai:     analyzer,
		logger: logger,
		locks:  newKeyedMutex(),
	}
}

// ProcessNewEmail ingests one raw email through the full pipeline. A
// duplicate message id is reported as skipped, not an error; re-running the
// pipeline on the same input never creates a second row.
func (p *Pipeline) ProcessNewEmail(ctx context.Context, raw models.RawEmail) (ItemResult, error) {
	unlock := p.locks.Lock(raw.MessageID)
	defer unlock()

	sentiment := p.analyzeSentiment(ctx, raw)
	priority := p.analyzePriority(ctx, raw)
	info := p.extractInfo(ctx, raw)

	email := models.Email{
		MessageID:     raw.MessageID,
		Subject:       raw.Subject,
		Sender:        raw.Sender,
		Body:          raw.Body,
		ReceivedAt:    raw.ReceivedAt,
		Priority:      priority.Priority,
		Sentiment:     sentiment.Sentiment,
		IsProcessed:   true,
		ExtractedInfo: info,
		Tags:          DeriveTags(raw.Subject, raw.Body, info),
	}

	created, err := p.store.CreateEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrDuplicateEmail) {
			p.logger.Debug().Str("message_id", raw.MessageID).Msg("email already ingested, skipping")
			return ItemResult{MessageID: raw.MessageID, Subject: raw.Subject, Status: ItemSkipped, Reason: "duplicate message id"}, nil
		}
		return ItemResult{MessageID: raw.MessageID, Subject: raw.Subject, Status: ItemFailed, Reason: err.Error()},
			apperr.PersistenceUnavailable("failed to store email", err)
	}

	if _, err := p.draftAndStoreResponse(ctx, created); err != nil {
		// The email row is in place; a missing draft is recoverable through
		// regeneration, so surface the item as processed anyway.
		p.logger.Error().Err(err).Str("email_id", created.ID).Msg("failed to store draft response")
	}

	p.logger.Info().
		Str("email_id", created.ID).
		Str("priority", string(created.Priority)).
		Str("sentiment", string(created.Sentiment)).
		Msg("email processed")

	return ItemResult{MessageID: raw.MessageID, EmailID: created.ID, Subject: raw.Subject, Status: ItemProcessed}, nil
}

// GenerateNewResponse re-drafts a reply for an existing email using its
// stored sentiment and extracted fields, appends a new response row, and
// returns the draft content.
func (p *Pipeline) GenerateNewResponse(ctx context.Context, emailID string) (string, error) {
	unlock := p.locks.Lock(emailID)
	defer unlock()

	email, err := p.store.GetEmailByID(ctx, emailID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.NotFound("email not found")
		}
		return "", apperr.PersistenceUnavailable("failed to load email", err)
	}

	resp, err := p.draftAndStoreResponse(ctx, email)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// ProcessUrgent drafts responses for unresolved urgent emails that have none
// yet, at most urgentBatchLimit per call.
func (p *Pipeline) ProcessUrgent(ctx context.Context) (BatchSummary, error) {
	emails, err := p.store.ListUnrespondedUrgent(ctx, urgentBatchLimit)
	if err != nil {
		return BatchSummary{}, apperr.PersistenceUnavailable("failed to list urgent emails", err)
	}

	summary := BatchSummary{}
	for _, email := range emails {
		if _, err := p.GenerateNewResponse(ctx, email.ID); err != nil {
			p.logger.Error().Err(err).Str("email_id", email.ID).Msg("failed to process urgent email")
			summary.add(ItemResult{EmailID: email.ID, Subject: email.Subject, Status: ItemFailed, Reason: err.Error()})
			continue
		}
		summary.add(ItemResult{EmailID: email.ID, Subject: email.Subject, Status: ItemProcessed})
	}
	return summary, nil
}

func (p *Pipeline) draftAndStoreResponse(ctx context.Context, email models.Email) (models.Response, error) {
	draft, err := p.ai.DraftReply(ctx, email.Body, email.Subject, email.Sentiment, email.ExtractedInfo)
	if err != nil {
		p.logger.Warn().Err(err).Str("email_id", email.ID).Msg("reply drafting failed, using fallback")
		draft = ai.DraftResult{
			Content:    fallbackReplyContent,
			Tone:       "professional",
			Confidence: 0,
			Reasoning:  "fallback response due to upstream error",
		}
	}

	resp, err := p.store.CreateResponse(ctx, models.Response{
		EmailID:    email.ID,
		Content:    draft.Content,
		Model:      p.ai.Model(),
		Confidence: int(math.Round(draft.Confidence * 100)),
	})
	if err != nil {
		return models.Response{}, apperr.PersistenceUnavailable("failed to store response", err)
	}
	return resp, nil
}

func (p *Pipeline) analyzeSentiment(ctx context.Context, raw models.RawEmail) ai.SentimentResult {
	result, err := p.ai.AnalyzeSentiment(ctx, raw.Body)
	if err != nil {
		p.logger.Warn().Err(err).Str("message_id", raw.MessageID).Msg("sentiment analysis failed, using neutral default")
		return ai.SentimentResult{
			Sentiment:  models.SentimentNeutral,
			Confidence: 0,
			Reasoning:  "analysis failed due to upstream error",
		}
	}
	return result
}

func (p *Pipeline) analyzePriority(ctx context.Context, raw models.RawEmail) ai.PriorityResult {
	result, err := p.ai.AnalyzePriority(ctx, raw.Body, raw.Subject)
	if err != nil {
		// Crude keyword guess so obviously urgent mail is not buried by an
		// upstream outage.
		keywords := ai.DetectUrgencyKeywords(raw.Subject + " " + raw.Body)
		priority := models.PriorityNormal
		if len(keywords) > 0 {
			priority = models.PriorityUrgent
		}
		p.logger.Warn().Err(err).Str("message_id", raw.MessageID).Msg("priority analysis failed, using keyword guess")
		return ai.PriorityResult{
			Priority:   priority,
			Confidence: 0,
			Keywords:   keywords,
			Reasoning:  "keyword fallback due to upstream error",
		}
	}
	return result
}

func (p *Pipeline) extractInfo(ctx context.Context, raw models.RawEmail) models.ExtractedInfo {
	info, err := p.ai.ExtractInfo(ctx, raw.Body)
	if err != nil {
		p.logger.Warn().Err(err).Str("message_id", raw.MessageID).Msg("extraction failed, using empty default")
		return models.ExtractedInfo{}
	}
	return info
}
