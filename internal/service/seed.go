package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/inboxtriage/backend/internal/apperr"
	"github.com/inboxtriage/backend/internal/models"
)

// sampleEmails is a small embedded dataset for demos and empty databases.
var sampleEmails = []seedRow{
	{
		Sender:   "john.doe@techcorp.com",
		Subject:  "Password Reset Issue",
		Body:     "I've been trying to reset my password for the past hour, but I'm not receiving the email. Can you help me with this?",
		SentDate: "2024-12-06 09:15:00",
	},
	{
		Sender:   "sarah.johnson@retailco.com",
		Subject:  "Billing Inquiry - Double Charge",
		Body:     "I was charged twice for my monthly subscription. Transaction IDs: TX123456 and TX123457. Please refund one of them.",
		SentDate: "2024-12-06 10:30:00",
	},
	{
		Sender:   "lisa.brown@agency.net",
		Subject:  "URGENT: System Outage",
		Body:     "Our entire team cannot access the platform. This is affecting our client deliverables. Need immediate assistance!",
		SentDate: "2024-12-06 13:20:00",
	},
	{
		Sender:   "dev.team@startupx.com",
		Subject:  "Critical Bug - Payment Processing",
		Body:     "Our payment processing is failing for all credit card transactions. Error code: CC_GATEWAY_ERROR. This is blocking our revenue!",
		SentDate: "2024-12-06 08:00:00",
	},
	{
		Sender:   "security@fintech.company",
		Subject:  "URGENT: Potential Security Breach",
		Body:     "We detected unusual API calls from unknown IP addresses. Possible security breach. Need immediate investigation!",
		SentDate: "2024-12-06 12:45:00",
	},
}

type seedRow struct {
	Sender   string
	Subject  string
	Body     string
	SentDate string
}

// Seeder loads demo emails, either from the embedded samples or from an
// uploaded CSV, and runs each one through the full pipeline.
type Seeder struct {
	store    Store
	pipeline *Pipeline
	logger   zerolog.Logger
}

func NewSeeder(store Store, pipeline *Pipeline, logger zerolog.Logger) *Seeder {
	return &Seeder{store: store, pipeline: pipeline, logger: logger}
}

// SeedSamples ingests the embedded sample dataset.
func (s *Seeder) SeedSamples(ctx context.Context) (BatchSummary, error) {
	return s.seed(ctx, sampleEmails)
}

// SeedCSV ingests rows from a CSV stream with a sender,subject,body,sent_date
// header.
func (s *Seeder) SeedCSV(ctx context.Context, r io.Reader) (BatchSummary, error) {
	rows, err := parseSeedCSV(r)
	if err != nil {
		return BatchSummary{}, apperr.InvalidInput(err.Error())
	}
	return s.seed(ctx, rows)
}

func (s *Seeder) seed(ctx context.Context, rows []seedRow) (BatchSummary, error) {
	summary := BatchSummary{}
	for _, row := range rows {
		// Seed rows carry no message id, so duplicates are detected on
		// content instead.
		exists, err := s.store.EmailExistsByContent(ctx, row.Sender, row.Subject, row.Body)
		if err != nil {
			return summary, apperr.PersistenceUnavailable("failed to check for duplicates", err)
		}
		if exists {
			s.logger.Debug().Str("subject", row.Subject).Msg("skipping duplicate seed email")
			summary.add(ItemResult{Subject: row.Subject, Status: ItemSkipped, Reason: "already seeded"})
			continue
		}

		receivedAt, err := parseSeedDate(row.SentDate)
		if err != nil {
			summary.add(ItemResult{Subject: row.Subject, Status: ItemFailed, Reason: err.Error()})
			continue
		}

		item, err := s.pipeline.ProcessNewEmail(ctx, models.RawEmail{
			MessageID:  "seed-" + uuid.NewString(),
			Subject:    row.Subject,
			Sender:     row.Sender,
			Body:       row.Body,
			ReceivedAt: receivedAt,
		})
		if err != nil {
			s.logger.Error().Err(err).Str("subject", row.Subject).Msg("failed to seed email")
			summary.add(item)
			continue
		}
		summary.add(item)
	}
	return summary, nil
}

func parseSeedCSV(r io.Reader) ([]seedRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("malformed csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty csv")
	}

	start := 0
	if isSeedHeader(records[0]) {
		start = 1
	}

	var rows []seedRow
	for _, rec := range records[start:] {
		if len(rec) < 4 {
			continue
		}
		rows = append(rows, seedRow{
			Sender:   strings.TrimSpace(rec[0]),
			Subject:  strings.TrimSpace(rec[1]),
			Body:     strings.TrimSpace(rec[2]),
			SentDate: strings.TrimSpace(rec[3]),
		})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv contains no email rows")
	}
	return rows, nil
}

func isSeedHeader(rec []string) bool {
	return len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "sender")
}

func parseSeedDate(v string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized sent_date %q", v)
}
