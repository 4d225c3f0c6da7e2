package ai

import "strings"

// knowledgeBase maps topic categories to canned reference facts that get
// appended to the draft prompt when the email matches the category keywords.
type knowledgeEntry struct {
	keywords []string
	facts    string
}

var knowledgeBase = map[string]knowledgeEntry{
	"billing": {
		keywords: []string{"billing", "payment", "charge", "refund", "subscription", "invoice"},
		facts: `- Refunds for duplicate charges are issued to the original payment method within 5-7 business days.
- Subscription changes take effect at the start of the next billing cycle.
- Invoices are available under Settings > Billing for the last 24 months.`,
	},
	"technical": {
		keywords: []string{"technical", "error", "bug", "not working", "crash", "broken"},
		facts: `- Ask for the exact error message or code and the time it occurred.
- Known issues and workarounds are published at status.example.com.
- Log files can be exported from Settings > Diagnostics.`,
	},
	"account-access": {
		keywords: []string{"login", "access", "password", "account", "locked", "reset"},
		facts: `- Password reset emails can take up to 10 minutes; advise checking spam folders.
- Accounts lock after 5 failed attempts and unlock automatically after 30 minutes.
- SSO users must reset credentials through their identity provider, not our reset flow.`,
	},
	"integration": {
		keywords: []string{"integration", "api", "webhook", "endpoint"},
		facts: `- API keys are scoped per workspace and can be rotated under Settings > API.
- Rate limit is 600 requests per minute; 429 responses include a Retry-After header.
- Webhook deliveries are retried 3 times with exponential backoff.`,
	},
	"pricing": {
		keywords: []string{"pricing", "price", "plan", "upgrade", "downgrade", "quote"},
		facts: `- Current plan pricing is listed at example.com/pricing; annual billing saves 20%.
- Enterprise quotes go through the sales team at sales@example.com.
- Downgrades keep existing data but disable features above the new plan's limits.`,
	},
	"infrastructure": {
		keywords: []string{"downtime", "server", "outage", "unavailable", "slow"},
		facts: `- Current platform status and incident history: status.example.com.
- During a declared incident, updates are posted every 30 minutes.
- SLA credits apply automatically for qualifying downtime on paid plans.`,
	},
}

// LookupKnowledge returns the reference facts for every category whose
// keywords appear in the subject or body. Empty string when nothing matches.
func LookupKnowledge(subject, body string) string {
	text := strings.ToLower(subject + " " + body)
	var blocks []string
	for _, category := range knowledgeCategories {
		entry := knowledgeBase[category]
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				blocks = append(blocks, entry.facts)
				break
			}
		}
	}
	return strings.Join(blocks, "\n")
}

// knowledgeCategories fixes iteration order so prompt assembly is deterministic.
var knowledgeCategories = []string{
	"billing",
	"technical",
	"account-access",
	"integration",
	"pricing",
	"infrastructure",
}
