package service

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/inboxtriage/backend/internal/apperr"
	"github.com/inboxtriage/backend/internal/models"
)

// backfillDays is how far back a full recompute reaches, today included.
const backfillDays = 7

// Aggregator recomputes daily analytics rollups from the raw email and
// response rows. Each run replaces the whole row for a date, so reruns are
// harmless.
type Aggregator struct {
	store  Store
	logger zerolog.Logger
}

func NewAggregator(store Store, logger zerolog.Logger) *Aggregator {
	return &Aggregator{store: store, logger: logger}
}

// UpdateDaily recomputes today's rollup.
func (a *Aggregator) UpdateDaily(ctx context.Context) (models.DailyAnalytics, error) {
	return a.updateDate(ctx, truncateToDay(time.Now().UTC()))
}

// Backfill recomputes the rollups for the last backfillDays days, oldest
// first.
func (a *Aggregator) Backfill(ctx context.Context) ([]models.DailyAnalytics, error) {
	today := truncateToDay(time.Now().UTC())
	out := make([]models.DailyAnalytics, 0, backfillDays)
	for i := backfillDays - 1; i >= 0; i-- {
		rollup, err := a.updateDate(ctx, today.AddDate(0, 0, -i))
		if err != nil {
			return out, err
		}
		out = append(out, rollup)
	}
	return out, nil
}

func (a *Aggregator) updateDate(ctx context.Context, day time.Time) (models.DailyAnalytics, error) {
	emails, err := a.store.ListEmailsReceivedBetween(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return models.DailyAnalytics{}, apperr.PersistenceUnavailable("failed to load emails for rollup", err)
	}

	responses := make(map[string][]models.Response, len(emails))
	for _, e := range emails {
		rs, err := a.store.ListResponsesByEmail(ctx, e.ID)
		if err != nil {
			return models.DailyAnalytics{}, apperr.PersistenceUnavailable("failed to load responses for rollup", err)
		}
		responses[e.ID] = rs
	}

	rollup := computeDaily(day, emails, responses)
	if err := a.store.UpsertDailyAnalytics(ctx, rollup); err != nil {
		return models.DailyAnalytics{}, apperr.PersistenceUnavailable("failed to store rollup", err)
	}

	a.logger.Info().
		Str("date", day.Format("2006-01-02")).
		Int("total", rollup.TotalEmails).
		Int("urgent", rollup.UrgentEmails).
		Msg("daily analytics updated")
	return rollup, nil
}

// computeDaily derives one date's rollup from the emails received that day
// and their responses. Sentiment counts are stored as whole percentages of
// the day's total; the average response time is minutes from receipt to the
// earliest generated response, over emails that have one.
func computeDaily(day time.Time, emails []models.Email, responses map[string][]models.Response) models.DailyAnalytics {
	rollup := models.DailyAnalytics{Date: day, TotalEmails: len(emails)}

	var positive, neutral, negative int
	var responseMinutes float64
	var responded int

	for _, e := range emails {
		if e.IsResolved {
			rollup.ResolvedEmails++
		}
		if e.Priority == models.PriorityUrgent {
			rollup.UrgentEmails++
		}
		switch e.Sentiment {
		case models.SentimentPositive:
			positive++
		case models.SentimentNegative:
			negative++
		default:
			neutral++
		}

		if first, ok := earliestResponse(responses[e.ID]); ok {
			responseMinutes += first.GeneratedAt.Sub(e.ReceivedAt).Minutes()
			responded++
		}
	}

	rollup.PendingEmails = rollup.TotalEmails - rollup.ResolvedEmails
	if responded > 0 {
		rollup.AvgResponseTime = int(math.Round(responseMinutes / float64(responded)))
		if rollup.AvgResponseTime < 0 {
			rollup.AvgResponseTime = 0
		}
	}
	if rollup.TotalEmails > 0 {
		total := float64(rollup.TotalEmails)
		rollup.SentimentBreakdown = models.SentimentBreakdown{
			Positive: int(math.Round(float64(positive) / total * 100)),
			Neutral:  int(math.Round(float64(neutral) / total * 100)),
			Negative: int(math.Round(float64(negative) / total * 100)),
		}
	}
	return rollup
}

func earliestResponse(rs []models.Response) (models.Response, bool) {
	if len(rs) == 0 {
		return models.Response{}, false
	}
	first := rs[0]
	for _, r := range rs[1:] {
		if r.GeneratedAt.Before(first.GeneratedAt) {
			first = r
		}
	}
	return first, true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
