package ai

import (
	"context"

	"github.com/inboxtriage/backend/internal/models"
)

// SentimentResult is the outcome of one sentiment round trip.
type SentimentResult struct {
	Sentiment  models.Sentiment `json:"sentiment"`
	Confidence float64          `json:"confidence"`
	Reasoning  string           `json:"reasoning"`
}

// PriorityResult is the outcome of one priority round trip. Keywords lists
// the urgency indicators the model reported as matched.
type PriorityResult struct {
	Priority   models.Priority `json:"priority"`
	Confidence float64         `json:"confidence"`
	Keywords   []string        `json:"keywords"`
	Reasoning  string          `json:"reasoning"`
}

// DraftResult is a generated reply draft.
type DraftResult struct {
	Content    string  `json:"content"`
	Tone       string  `json:"tone"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Analyzer is the language-model collaborator. Each method is one independent
// request/response round trip; callers own the fallback behavior on error.
type Analyzer interface {
	AnalyzeSentiment(ctx context.Context, body string) (SentimentResult, error)
	AnalyzePriority(ctx context.Context, body, subject string) (PriorityResult, error)
	ExtractInfo(ctx context.Context, body string) (models.ExtractedInfo, error)
	DraftReply(ctx context.Context, body, subject string, sentiment models.Sentiment, info models.ExtractedInfo) (DraftResult, error)

	// Model identifies the backing model for persisted responses.
	Model() string
}
