package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"

	"github.com/inboxtriage/backend/internal/models"
)

const DefaultModel = "gpt-4o-mini"

const sentimentSystemPrompt = `You are a sentiment analysis expert. Analyze the sentiment of customer support emails.
Respond with JSON in this exact format: {
  "sentiment": "positive" | "negative" | "neutral",
  "confidence": number between 0 and 1,
  "reasoning": "brief explanation of why you classified it this way"
}`

const prioritySystemPrompt = `You are a priority classification expert for customer support emails.
Classify emails as "urgent" or "normal" based on content and urgency indicators.

URGENT indicators: "immediately", "critical", "cannot access", "down", "broken", "emergency", "asap", "urgent", "help", "issue", "problem", "error", "failed", "not working"

Respond with JSON in this exact format: {
  "priority": "urgent" | "normal",
  "confidence": number between 0 and 1,
  "keywords": ["array", "of", "detected", "urgency", "keywords"],
  "reasoning": "brief explanation of classification"
}`

const extractionSystemPrompt = `You are an information extraction expert. Extract key customer information from support emails.

Respond with JSON in this exact format: {
  "customer_name": "full name if found",
  "customer_id": "customer/account ID if mentioned",
  "phone": "phone number if provided",
  "email": "email address if different from sender",
  "company": "company name if mentioned",
  "issue_type": "categorize the main issue type",
  "product": "product/service mentioned",
  "urgency_keywords": ["array", "of", "urgency", "related", "words"]
}

Omit fields that cannot be determined.`

const draftSystemPrompt = `You are a professional customer support specialist. Generate empathetic, helpful, and professional email responses.

Guidelines:
- Always maintain a professional and friendly tone
- Be empathetic, especially for frustrated customers
- Provide actionable solutions when possible
- Include specific details from the customer's message
- Use appropriate greeting and closing
- Keep responses concise but comprehensive
- Include next steps and contact information

%s

Respond with JSON in this exact format: {
  "content": "the complete email response",
  "tone": "description of the tone used",
  "confidence": number between 0 and 1,
  "reasoning": "brief explanation of response approach"
}`

// OpenAIAnalyzer implements Analyzer with one chat completion per capability,
// forcing the JSON response format and parsing the structured payload.
type OpenAIAnalyzer struct {
	client *openai.Client
	model  string
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

func NewOpenAIAnalyzer(cfg OpenAIConfig) *OpenAIAnalyzer {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIAnalyzer{
		client: openai.NewClient(cfg.APIKey),
		model:  model,
	}
}

func (a *OpenAIAnalyzer) Model() string {
	return a.model
}

func (a *OpenAIAnalyzer) AnalyzeSentiment(ctx context.Context, body string) (SentimentResult, error) {
	userPrompt := fmt.Sprintf("Analyze the sentiment of this email:\n\n%s", truncate(body, 4000))
	var result SentimentResult
	if err := a.completeJSON(ctx, sentimentSystemPrompt, userPrompt, &result); err != nil {
		return SentimentResult{}, err
	}
	switch result.Sentiment {
	case models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral:
	default:
		result.Sentiment = models.SentimentNeutral
	}
	result.Confidence = clamp01(result.Confidence)
	return result, nil
}

func (a *OpenAIAnalyzer) AnalyzePriority(ctx context.Context, body, subject string) (PriorityResult, error) {
	userPrompt := fmt.Sprintf("Subject: %s\n\nContent: %s", subject, truncate(body, 4000))
	var result PriorityResult
	if err := a.completeJSON(ctx, prioritySystemPrompt, userPrompt, &result); err != nil {
		return PriorityResult{}, err
	}
	if result.Priority != models.PriorityUrgent {
		result.Priority = models.PriorityNormal
	}
	result.Confidence = clamp01(result.Confidence)
	return result, nil
}

func (a *OpenAIAnalyzer) ExtractInfo(ctx context.Context, body string) (models.ExtractedInfo, error) {
	userPrompt := fmt.Sprintf("Extract information from this email:\n\n%s", truncate(body, 4000))
	var result models.ExtractedInfo
	if err := a.completeJSON(ctx, extractionSystemPrompt, userPrompt, &result); err != nil {
		return models.ExtractedInfo{}, err
	}
	return result, nil
}

func (a *OpenAIAnalyzer) DraftReply(ctx context.Context, body, subject string, sentiment models.Sentiment, info models.ExtractedInfo) (DraftResult, error) {
	system := fmt.Sprintf(draftSystemPrompt, buildDraftContext(subject, body, sentiment, info))
	userPrompt := fmt.Sprintf("Generate a professional response to this email:\n\nSubject: %s\n\nContent: %s", subject, truncate(body, 4000))
	var result DraftResult
	if err := a.completeJSON(ctx, system, userPrompt, &result); err != nil {
		return DraftResult{}, err
	}
	if result.Tone == "" {
		result.Tone = "professional"
	}
	result.Confidence = clamp01(result.Confidence)
	return result, nil
}

// buildDraftContext assembles the per-email guidance block: sentiment cues,
// extracted customer details, and matched knowledge-base reference facts.
func buildDraftContext(subject, body string, sentiment models.Sentiment, info models.ExtractedInfo) string {
	var b strings.Builder

	switch sentiment {
	case models.SentimentNegative:
		b.WriteString("The customer appears frustrated or upset. Acknowledge their frustration empathetically and prioritize resolving their issue quickly. ")
	case models.SentimentPositive:
		b.WriteString("The customer has a positive tone. Maintain this positive interaction while being helpful. ")
	}

	if info.CustomerName != "" {
		fmt.Fprintf(&b, "Address the customer by name: %s. ", info.CustomerName)
	}
	if info.CustomerID != "" {
		fmt.Fprintf(&b, "Reference their customer ID: %s. ", info.CustomerID)
	}
	if info.IssueType != "" {
		fmt.Fprintf(&b, "The issue type is: %s. ", info.IssueType)
	}
	if info.Product != "" {
		fmt.Fprintf(&b, "They are asking about: %s. ", info.Product)
	}
	if len(info.UrgencyKeywords) > 0 {
		fmt.Fprintf(&b, "Urgency indicators detected: %s. Prioritize quick resolution. ", strings.Join(info.UrgencyKeywords, ", "))
	}

	if kb := LookupKnowledge(subject, body); kb != "" {
		b.WriteString("\n\nReference facts for this topic:\n")
		b.WriteString(kb)
	}

	return b.String()
}

func (a *OpenAIAnalyzer) completeJSON(ctx context.Context, systemPrompt, userPrompt string, out any) error {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return err
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("empty completion response")
	}

	content := resp.Choices[0].Message.Content
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("failed to parse completion response: %w", err)
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// truncate cuts s to at most max bytes without splitting a UTF-8 rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
