package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/inboxtriage/backend/internal/apperr"
	"github.com/inboxtriage/backend/internal/models"
)

// supportQuery narrows the fetch to unread support-related mail.
const supportQuery = "subject:(support OR query OR request OR help) is:unread"

// OAuthConfig builds the oauth2 config for the Gmail scopes the triage
// pipeline needs: read messages and modify their labels.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			gmail.GmailReadonlyScope,
			gmail.GmailModifyScope,
		},
	}
}

// AuthURL returns the consent URL for the offline flow.
func AuthURL(cfg *oauth2.Config) string {
	return cfg.AuthCodeURL("state", oauth2.AccessTypeOffline)
}

// ExchangeCode trades an authorization code for tokens.
func ExchangeCode(ctx context.Context, cfg *oauth2.Config, code string) (*oauth2.Token, error) {
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("failed to exchange authorization code", err)
	}
	return token, nil
}

// GmailMailbox implements Mailbox on the Gmail API.
type GmailMailbox struct {
	service *gmail.Service
}

// NewGmailMailbox connects using a refresh token obtained through the OAuth
// flow.
func NewGmailMailbox(ctx context.Context, cfg *oauth2.Config, refreshToken string) (*GmailMailbox, error) {
	token := &oauth2.Token{RefreshToken: refreshToken}
	client := cfg.Client(ctx, token)

	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	// Profile fetch doubles as a credential check before the first sync.
	if _, err := service.Users.GetProfile("me").Context(ctx).Do(); err != nil {
		return nil, apperr.UpstreamUnavailable("failed to load gmail profile", err)
	}

	return &GmailMailbox{service: service}, nil
}

func (g *GmailMailbox) FetchSupportEmails(ctx context.Context, max int) ([]models.RawEmail, error) {
	if max <= 0 {
		max = 50
	}
	resp, err := g.service.Users.Messages.List("me").
		Q(supportQuery).
		MaxResults(int64(max)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, apperr.UpstreamUnavailable("failed to list gmail messages", err)
	}

	emails := make([]models.RawEmail, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		msg, err := g.service.Users.Messages.Get("me", m.Id).
			Format("full").
			Context(ctx).
			Do()
		if err != nil {
			return nil, apperr.UpstreamUnavailable("failed to fetch gmail message", err)
		}
		emails = append(emails, parseMessage(msg))
	}
	return emails, nil
}

func (g *GmailMailbox) MarkRead(ctx context.Context, messageID string) error {
	_, err := g.service.Users.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Context(ctx).Do()
	if err != nil {
		return apperr.UpstreamUnavailable("failed to mark gmail message read", err)
	}
	return nil
}

func parseMessage(msg *gmail.Message) models.RawEmail {
	raw := models.RawEmail{MessageID: msg.Id}
	if msg.Payload == nil {
		return raw
	}

	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "Subject":
			raw.Subject = h.Value
		case "From":
			raw.Sender = h.Value
		}
	}

	raw.Body = extractBody(msg.Payload)
	if msg.InternalDate > 0 {
		raw.ReceivedAt = time.UnixMilli(msg.InternalDate).UTC()
	} else {
		raw.ReceivedAt = time.Now().UTC()
	}
	return raw
}

// extractBody prefers the top-level body, then the first text/plain part,
// recursing into multipart containers.
func extractBody(p *gmail.MessagePart) string {
	if p.Body != nil && p.Body.Data != "" {
		if decoded := decodeBody(p.Body.Data); decoded != "" {
			return decoded
		}
	}
	for _, part := range p.Parts {
		if part.MimeType == "text/plain" {
			if body := extractBody(part); body != "" {
				return body
			}
		}
	}
	for _, part := range p.Parts {
		if strings.HasPrefix(part.MimeType, "multipart/") {
			if body := extractBody(part); body != "" {
				return body
			}
		}
	}
	return ""
}

// decodeBody handles both padded and unpadded base64url, which Gmail mixes.
func decodeBody(data string) string {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	return ""
}
