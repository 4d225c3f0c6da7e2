package ai

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/inboxtriage/backend/internal/models"
)

func TestMockAnalyzerDeterministic(t *testing.T) {
	m := MockAnalyzer{}
	ctx := context.Background()
	body := "The server is down and we cannot access anything. This is urgent!"

	first, err := m.AnalyzeSentiment(ctx, body)
	if err != nil {
		t.Fatalf("sentiment: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := m.AnalyzeSentiment(ctx, body)
		if again != first {
			t.Fatalf("sentiment not deterministic: %+v vs %+v", first, again)
		}
	}
	if first.Confidence < 0.60 || first.Confidence > 0.94 {
		t.Fatalf("confidence out of range: %f", first.Confidence)
	}
}

func TestMockAnalyzerPriority(t *testing.T) {
	m := MockAnalyzer{}
	ctx := context.Background()

	urgent, _ := m.AnalyzePriority(ctx, "the whole system is down, fix asap", "Outage")
	if urgent.Priority != models.PriorityUrgent {
		t.Fatalf("expected urgent, got %s", urgent.Priority)
	}
	if len(urgent.Keywords) == 0 {
		t.Fatalf("expected detected keywords")
	}

	normal, _ := m.AnalyzePriority(ctx, "could you clarify the invoice layout", "Question")
	if normal.Priority != models.PriorityNormal {
		t.Fatalf("expected normal, got %s", normal.Priority)
	}
}

func TestMockAnalyzerSentimentKeywords(t *testing.T) {
	m := MockAnalyzer{}
	ctx := context.Background()

	pos, _ := m.AnalyzeSentiment(ctx, "Thank you, the new release is great")
	if pos.Sentiment != models.SentimentPositive {
		t.Fatalf("expected positive, got %s", pos.Sentiment)
	}
	neg, _ := m.AnalyzeSentiment(ctx, "There is a problem with my invoice")
	if neg.Sentiment != models.SentimentNegative {
		t.Fatalf("expected negative, got %s", neg.Sentiment)
	}
	neu, _ := m.AnalyzeSentiment(ctx, "Please send the onboarding guide")
	if neu.Sentiment != models.SentimentNeutral {
		t.Fatalf("expected neutral, got %s", neu.Sentiment)
	}
}

func TestMockAnalyzerDraftUsesCustomerName(t *testing.T) {
	m := MockAnalyzer{}
	draft, err := m.DraftReply(context.Background(), "help me", "Login issue", models.SentimentNegative, models.ExtractedInfo{CustomerName: "Dana"})
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	if !strings.Contains(draft.Content, "Hello Dana,") {
		t.Fatalf("expected personalized greeting, got %q", draft.Content)
	}
}

func TestDetectUrgencyKeywords(t *testing.T) {
	got := DetectUrgencyKeywords("URGENT: system is DOWN, respond ASAP")
	want := []string{"down", "asap", "urgent"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if kws := DetectUrgencyKeywords("just a routine question"); kws != nil {
		t.Fatalf("expected no keywords, got %v", kws)
	}
}

func TestLookupKnowledge(t *testing.T) {
	facts := LookupKnowledge("Double charge", "I was charged twice, please refund")
	if !strings.Contains(facts, "Refunds for duplicate charges") {
		t.Fatalf("expected billing facts, got %q", facts)
	}

	multi := LookupKnowledge("API outage", "the api returns errors and the server seems down")
	if !strings.Contains(multi, "Rate limit") || !strings.Contains(multi, "status.example.com") {
		t.Fatalf("expected integration and infrastructure facts, got %q", multi)
	}

	if facts := LookupKnowledge("Hello", "just saying hi"); facts != "" {
		t.Fatalf("expected empty facts, got %q", facts)
	}
}
