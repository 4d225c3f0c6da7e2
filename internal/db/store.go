package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inboxtriage/backend/internal/models"
)

// ErrDuplicateEmail signals a message_id that is already stored. Ingestion
// treats it as "already present", not a failure.
var ErrDuplicateEmail = errors.New("email already exists")

const uniqueViolation = "23505"

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const emailColumns = `id, message_id, subject, sender, body, received_at, priority, sentiment,
	is_processed, is_resolved, extracted_info, tags, created_at, updated_at`

// CreateEmail inserts a new email row. The unique constraint on message_id is
// the duplicate check; a conflict surfaces as ErrDuplicateEmail.
func (s *Store) CreateEmail(ctx context.Context, e models.Email) (models.Email, error) {
	infoJSON, err := json.Marshal(e.ExtractedInfo)
	if err != nil {
		return models.Email{}, err
	}
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}

	row := s.Pool.QueryRow(ctx, `
		INSERT INTO emails (message_id, subject, sender, body, received_at, priority, sentiment, is_processed, is_resolved, extracted_info, tags)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at, updated_at
	`, e.MessageID, e.Subject, e.Sender, e.Body, e.ReceivedAt, e.Priority, e.Sentiment, e.IsProcessed, e.IsResolved, infoJSON, tags)

	if err := row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.Email{}, ErrDuplicateEmail
		}
		return models.Email{}, err
	}
	return e, nil
}

func (s *Store) GetEmailByID(ctx context.Context, id string) (models.Email, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+emailColumns+` FROM emails WHERE id = $1`, id)
	return scanEmail(row)
}

func (s *Store) GetEmailByMessageID(ctx context.Context, messageID string) (models.Email, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+emailColumns+` FROM emails WHERE message_id = $1`, messageID)
	return scanEmail(row)
}

func (s *Store) ListEmails(ctx context.Context, limit int) ([]models.Email, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+emailColumns+` FROM emails ORDER BY received_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectEmails(rows)
}

func (s *Store) ListEmailsByPriority(ctx context.Context, priority models.Priority) ([]models.Email, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+emailColumns+` FROM emails WHERE priority = $1 ORDER BY received_at DESC`, priority)
	if err != nil {
		return nil, err
	}
	return collectEmails(rows)
}

func (s *Store) ListEmailsBySentiment(ctx context.Context, sentiment models.Sentiment) ([]models.Email, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+emailColumns+` FROM emails WHERE sentiment = $1 ORDER BY received_at DESC`, sentiment)
	if err != nil {
		return nil, err
	}
	return collectEmails(rows)
}

// ListEmailsReceivedBetween returns emails with from <= received_at < to.
func (s *Store) ListEmailsReceivedBetween(ctx context.Context, from, to time.Time) ([]models.Email, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+emailColumns+` FROM emails WHERE received_at >= $1 AND received_at < $2 ORDER BY received_at DESC`, from, to)
	if err != nil {
		return nil, err
	}
	return collectEmails(rows)
}

// ListUnrespondedUrgent returns unresolved urgent emails that have no
// response yet, oldest first, capped at limit.
func (s *Store) ListUnrespondedUrgent(ctx context.Context, limit int) ([]models.Email, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+emailColumns+`
		FROM emails e
		WHERE e.priority = 'urgent'
		  AND e.is_resolved = FALSE
		  AND NOT EXISTS (SELECT 1 FROM responses r WHERE r.email_id = e.id)
		ORDER BY e.received_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return collectEmails(rows)
}

// EmailExistsByContent reports whether an email with the same sender, subject
// and body is already stored. Used by CSV seeding, which has no stable
// message id to key a constraint on.
func (s *Store) EmailExistsByContent(ctx context.Context, sender, subject, body string) (bool, error) {
	var exists bool
	err := s.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM emails WHERE sender = $1 AND subject = $2 AND body = $3)
	`, sender, subject, body).Scan(&exists)
	return exists, err
}

func (s *Store) MarkEmailResolved(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE emails SET is_resolved = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) CreateResponse(ctx context.Context, r models.Response) (models.Response, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO responses (email_id, content, is_sent, sent_at, model, confidence)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, generated_at
	`, r.EmailID, r.Content, r.IsSent, r.SentAt, r.Model, r.Confidence)
	if err := row.Scan(&r.ID, &r.GeneratedAt); err != nil {
		return models.Response{}, err
	}
	return r, nil
}

func (s *Store) ListResponsesByEmail(ctx context.Context, emailID string) ([]models.Response, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, email_id, content, is_sent, sent_at, generated_at, model, confidence
		FROM responses WHERE email_id = $1 ORDER BY generated_at DESC
	`, emailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Response
	for rows.Next() {
		var r models.Response
		if err := rows.Scan(&r.ID, &r.EmailID, &r.Content, &r.IsSent, &r.SentAt, &r.GeneratedAt, &r.Model, &r.Confidence); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetResponseByID(ctx context.Context, id string) (models.Response, error) {
	var r models.Response
	err := s.Pool.QueryRow(ctx, `
		SELECT id, email_id, content, is_sent, sent_at, generated_at, model, confidence
		FROM responses WHERE id = $1
	`, id).Scan(&r.ID, &r.EmailID, &r.Content, &r.IsSent, &r.SentAt, &r.GeneratedAt, &r.Model, &r.Confidence)
	if err != nil {
		return models.Response{}, err
	}
	return r, nil
}

// MarkResponseSent sets the response as sent and resolves its parent email in
// one transaction.
func (s *Store) MarkResponseSent(ctx context.Context, responseID string) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		var emailID string
		err := tx.QueryRow(ctx, `
			UPDATE responses SET is_sent = TRUE, sent_at = NOW() WHERE id = $1 RETURNING email_id
		`, responseID).Scan(&emailID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE emails SET is_resolved = TRUE, updated_at = NOW() WHERE id = $1`, emailID)
		return err
	})
}

func (s *Store) UpsertDailyAnalytics(ctx context.Context, a models.DailyAnalytics) error {
	breakdown, err := json.Marshal(a.SentimentBreakdown)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO analytics (date, total_emails, resolved_emails, pending_emails, urgent_emails, avg_response_time, sentiment_breakdown)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (date) DO UPDATE SET
			total_emails = EXCLUDED.total_emails,
			resolved_emails = EXCLUDED.resolved_emails,
			pending_emails = EXCLUDED.pending_emails,
			urgent_emails = EXCLUDED.urgent_emails,
			avg_response_time = EXCLUDED.avg_response_time,
			sentiment_breakdown = EXCLUDED.sentiment_breakdown
	`, a.Date, a.TotalEmails, a.ResolvedEmails, a.PendingEmails, a.UrgentEmails, a.AvgResponseTime, breakdown)
	return err
}

func (s *Store) GetAnalyticsByDate(ctx context.Context, date time.Time) (models.DailyAnalytics, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, date, total_emails, resolved_emails, pending_emails, urgent_emails, avg_response_time, sentiment_breakdown
		FROM analytics WHERE date = $1
	`, date)
	return scanAnalytics(row)
}

func (s *Store) ListAnalyticsRange(ctx context.Context, start, end time.Time) ([]models.DailyAnalytics, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, date, total_emails, resolved_emails, pending_emails, urgent_emails, avg_response_time, sentiment_breakdown
		FROM analytics WHERE date >= $1 AND date <= $2 ORDER BY date DESC
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DailyAnalytics
	for rows.Next() {
		a, err := scanAnalytics(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmail(row rowScanner) (models.Email, error) {
	var (
		e        models.Email
		infoJSON []byte
	)
	err := row.Scan(&e.ID, &e.MessageID, &e.Subject, &e.Sender, &e.Body, &e.ReceivedAt,
		&e.Priority, &e.Sentiment, &e.IsProcessed, &e.IsResolved, &infoJSON, &e.Tags,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return models.Email{}, err
	}
	if len(infoJSON) > 0 {
		if err := json.Unmarshal(infoJSON, &e.ExtractedInfo); err != nil {
			return models.Email{}, fmt.Errorf("decode extracted_info: %w", err)
		}
	}
	return e, nil
}

func collectEmails(rows pgx.Rows) ([]models.Email, error) {
	defer rows.Close()
	var out []models.Email
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanAnalytics(row rowScanner) (models.DailyAnalytics, error) {
	var (
		a             models.DailyAnalytics
		breakdownJSON []byte
	)
	err := row.Scan(&a.ID, &a.Date, &a.TotalEmails, &a.ResolvedEmails, &a.PendingEmails,
		&a.UrgentEmails, &a.AvgResponseTime, &breakdownJSON)
	if err != nil {
		return models.DailyAnalytics{}, err
	}
	if len(breakdownJSON) > 0 {
		if err := json.Unmarshal(breakdownJSON, &a.SentimentBreakdown); err != nil {
			return models.DailyAnalytics{}, fmt.Errorf("decode sentiment_breakdown: %w", err)
		}
	}
	return a, nil
}

// normalizeFilter trims and lowercases a user-supplied enum filter value.
func normalizeFilter(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// ParsePriority validates a priority filter value.
func ParsePriority(v string) (models.Priority, bool) {
	switch normalizeFilter(v) {
	case "urgent":
		return models.PriorityUrgent, true
	case "normal":
		return models.PriorityNormal, true
	}
	return "", false
}

// ParseSentiment validates a sentiment filter value.
func ParseSentiment(v string) (models.Sentiment, bool) {
	switch normalizeFilter(v) {
	case "positive":
		return models.SentimentPositive, true
	case "negative":
		return models.SentimentNegative, true
	case "neutral":
		return models.SentimentNeutral, true
	}
	return "", false
}
