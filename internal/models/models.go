package models

import "time"

type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityNormal Priority = "normal"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// RawEmail is an inbound email before the pipeline has touched it.
type RawEmail struct {
	MessageID  string    `json:"message_id"`
	Subject    string    `json:"subject"`
	Sender     string    `json:"sender"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// ExtractedInfo holds the structured fields the extractor pulls out of an
// email body. Every field except UrgencyKeywords is optional.
type ExtractedInfo struct {
	CustomerName    string   `json:"customer_name,omitempty"`
	CustomerID      string   `json:"customer_id,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	Email           string   `json:"email,omitempty"`
	Company         string   `json:"company,omitempty"`
	IssueType       string   `json:"issue_type,omitempty"`
	Product         string   `json:"product,omitempty"`
	UrgencyKeywords []string `json:"urgency_keywords,omitempty"`
}

type Email struct {
	ID            string        `json:"id"`
	MessageID     string        `json:"message_id"`
	Subject       string        `json:"subject"`
	Sender        string        `json:"sender"`
	Body          string        `json:"body"`
	ReceivedAt    time.Time     `json:"received_at"`
	Priority      Priority      `json:"priority"`
	Sentiment     Sentiment     `json:"sentiment"`
	IsProcessed   bool          `json:"is_processed"`
	IsResolved    bool          `json:"is_resolved"`
	ExtractedInfo ExtractedInfo `json:"extracted_info"`
	Tags          []string      `json:"tags"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type Response struct {
	ID          string     `json:"id"`
	EmailID     string     `json:"email_id"`
	Content     string     `json:"content"`
	IsSent      bool       `json:"is_sent"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	GeneratedAt time.Time  `json:"generated_at"`
	Model       string     `json:"model"`
	Confidence  int        `json:"confidence"`
}

type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// DailyAnalytics is a per-date rollup. At most one row per date; recomputed
// wholesale by the aggregator, not maintained incrementally.
type DailyAnalytics struct {
	ID                 string             `json:"id"`
	Date               time.Time          `json:"date"`
	TotalEmails        int                `json:"total_emails"`
	ResolvedEmails     int                `json:"resolved_emails"`
	PendingEmails      int                `json:"pending_emails"`
	UrgentEmails       int                `json:"urgent_emails"`
	AvgResponseTime    int                `json:"avg_response_time"`
	SentimentBreakdown SentimentBreakdown `json:"sentiment_breakdown"`
}
