package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/inboxtriage/backend/internal/models"
)

func TestComputeDailyEmpty(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	rollup := computeDaily(day, nil, nil)

	if rollup.TotalEmails != 0 || rollup.PendingEmails != 0 || rollup.UrgentEmails != 0 {
		t.Fatalf("expected zero counts, got %+v", rollup)
	}
	if rollup.AvgResponseTime != 0 {
		t.Fatalf("expected zero avg response time, got %d", rollup.AvgResponseTime)
	}
	if rollup.SentimentBreakdown != (models.SentimentBreakdown{}) {
		t.Fatalf("expected zero sentiment breakdown, got %+v", rollup.SentimentBreakdown)
	}
}

func TestComputeDailyCountsAndPercentages(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }

	emails := []models.Email{
		{ID: "e1", ReceivedAt: at(9), Sentiment: models.SentimentPositive, Priority: models.PriorityNormal, IsResolved: true},
		{ID: "e2", ReceivedAt: at(10), Sentiment: models.SentimentPositive, Priority: models.PriorityUrgent},
		{ID: "e3", ReceivedAt: at(11), Sentiment: models.SentimentNeutral, Priority: models.PriorityNormal},
		{ID: "e4", ReceivedAt: at(12), Sentiment: models.SentimentNegative, Priority: models.PriorityNormal, IsResolved: true},
	}
	rollup := computeDaily(day, emails, nil)

	if rollup.TotalEmails != 4 {
		t.Fatalf("total: got %d", rollup.TotalEmails)
	}
	if rollup.ResolvedEmails != 2 || rollup.PendingEmails != 2 {
		t.Fatalf("resolved/pending: got %d/%d", rollup.ResolvedEmails, rollup.PendingEmails)
	}
	if rollup.UrgentEmails != 1 {
		t.Fatalf("urgent: got %d", rollup.UrgentEmails)
	}
	want := models.SentimentBreakdown{Positive: 50, Neutral: 25, Negative: 25}
	if rollup.SentimentBreakdown != want {
		t.Fatalf("sentiment breakdown: got %+v, want %+v", rollup.SentimentBreakdown, want)
	}
}

func TestComputeDailyAvgResponseTime(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	received := day.Add(9 * time.Hour)

	emails := []models.Email{
		{ID: "e1", ReceivedAt: received, Sentiment: models.SentimentNeutral},
		{ID: "e2", ReceivedAt: received, Sentiment: models.SentimentNeutral},
		{ID: "e3", ReceivedAt: received, Sentiment: models.SentimentNeutral},
	}
	responses := map[string][]models.Response{
		// Later regeneration must not shrink the measured first-response time.
		"e1": {
			{GeneratedAt: received.Add(30 * time.Minute)},
			{GeneratedAt: received.Add(4 * time.Hour)},
		},
		"e2": {{GeneratedAt: received.Add(90 * time.Minute)}},
		// e3 has no response and is excluded from the average.
	}

	rollup := computeDaily(day, emails, responses)
	if rollup.AvgResponseTime != 60 {
		t.Fatalf("avg response time: got %d, want 60", rollup.AvgResponseTime)
	}
}

func TestAggregatorBackfillWritesSevenDays(t *testing.T) {
	store := newFakeStore()
	today := truncateToDay(time.Now().UTC())
	store.addEmail(models.Email{
		MessageID:  "today-1",
		ReceivedAt: today.Add(8 * time.Hour),
		Sentiment:  models.SentimentPositive,
		Priority:   models.PriorityUrgent,
	})

	agg := NewAggregator(store, zerolog.Nop())
	rollups, err := agg.Backfill(context.Background())
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if len(rollups) != 7 {
		t.Fatalf("expected 7 rollups, got %d", len(rollups))
	}
	if len(store.analytics) != 7 {
		t.Fatalf("expected 7 stored rollups, got %d", len(store.analytics))
	}

	todayRollup, ok := store.analytics[today.Format("2006-01-02")]
	if !ok {
		t.Fatalf("missing rollup for today")
	}
	if todayRollup.TotalEmails != 1 || todayRollup.UrgentEmails != 1 {
		t.Fatalf("unexpected today rollup: %+v", todayRollup)
	}
	if todayRollup.SentimentBreakdown.Positive != 100 {
		t.Fatalf("expected 100%% positive, got %+v", todayRollup.SentimentBreakdown)
	}
}

func TestAggregatorUpdateDailyIdempotent(t *testing.T) {
	store := newFakeStore()
	today := truncateToDay(time.Now().UTC())
	store.addEmail(models.Email{
		MessageID:  "m1",
		ReceivedAt: today.Add(time.Hour),
		Sentiment:  models.SentimentNeutral,
	})

	agg := NewAggregator(store, zerolog.Nop())
	first, err := agg.UpdateDaily(context.Background())
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	second, err := agg.UpdateDaily(context.Background())
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if first.TotalEmails != second.TotalEmails || len(store.analytics) != 1 {
		t.Fatalf("rerun must replace, not duplicate: %d rows", len(store.analytics))
	}
}
