package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/inboxtriage/backend/internal/models"
	"github.com/inboxtriage/backend/internal/utils"
)

// MockAnalyzer produces deterministic results seeded from the input text, for
// local development and tests without an API key.
type MockAnalyzer struct {
	ModelVersion string
}

func (m MockAnalyzer) Model() string {
	if m.ModelVersion == "" {
		return "mock-v1"
	}
	return m.ModelVersion
}

func (m MockAnalyzer) AnalyzeSentiment(ctx context.Context, body string) (SentimentResult, error) {
	lower := strings.ToLower(body)
	sentiment := models.SentimentNeutral
	switch {
	case strings.Contains(lower, "thank") || strings.Contains(lower, "appreciate") || strings.Contains(lower, "great"):
		sentiment = models.SentimentPositive
	case strings.Contains(lower, "problem") || strings.Contains(lower, "issue") || strings.Contains(lower, "error") || strings.Contains(lower, "frustrat"):
		sentiment = models.SentimentNegative
	}
	return SentimentResult{
		Sentiment:  sentiment,
		Confidence: mockConfidence(body),
		Reasoning:  "keyword-based mock classification",
	}, nil
}

func (m MockAnalyzer) AnalyzePriority(ctx context.Context, body, subject string) (PriorityResult, error) {
	keywords := DetectUrgencyKeywords(subject + " " + body)
	priority := models.PriorityNormal
	if len(keywords) > 0 {
		priority = models.PriorityUrgent
	}
	return PriorityResult{
		Priority:   priority,
		Confidence: mockConfidence(subject + body),
		Keywords:   keywords,
		Reasoning:  "urgency keyword scan",
	}, nil
}

func (m MockAnalyzer) ExtractInfo(ctx context.Context, body string) (models.ExtractedInfo, error) {
	return models.ExtractedInfo{
		UrgencyKeywords: DetectUrgencyKeywords(body),
	}, nil
}

func (m MockAnalyzer) DraftReply(ctx context.Context, body, subject string, sentiment models.Sentiment, info models.ExtractedInfo) (DraftResult, error) {
	greeting := "Hello,"
	if info.CustomerName != "" {
		greeting = fmt.Sprintf("Hello %s,", info.CustomerName)
	}
	content := fmt.Sprintf("%s\n\nThank you for reaching out about %q. We have received your message and our support team is looking into it. We will follow up with you shortly.\n\nBest regards,\nSupport Team", greeting, subject)
	return DraftResult{
		Content:    content,
		Tone:       "professional",
		Confidence: mockConfidence(subject),
		Reasoning:  "templated mock reply",
	}, nil
}

func mockConfidence(seed string) float64 {
	h := utils.HashStringToUint64(seed)
	// 0.60 .. 0.94 in steps derived from the hash
	return 0.60 + float64(h%35)/100
}

// urgencyKeywords mirrors the indicator list the priority prompt documents.
var urgencyKeywords = []string{
	"immediately", "critical", "cannot access", "down", "broken",
	"emergency", "asap", "urgent", "not working", "outage",
}

// DetectUrgencyKeywords returns the documented urgency indicators present in
// text, lowercased. Shared by the mock analyzer and the pipeline's fallback
// priority guess.
func DetectUrgencyKeywords(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, kw := range urgencyKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}
