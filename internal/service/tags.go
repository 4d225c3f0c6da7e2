package service

import (
	"regexp"
	"strings"

	"github.com/inboxtriage/backend/internal/models"
)

// tagKeywordGroups maps a tag to the keywords that trigger it when found in
// the lowercased subject+body text.
var tagKeywordGroups = []struct {
	tag      string
	keywords []string
}{
	{"urgent", []string{"urgent", "critical", "immediate"}},
	{"account-access", []string{"login", "access", "account"}},
	{"billing", []string{"billing", "payment", "charge", "refund", "subscription"}},
	{"technical", []string{"technical", "error", "bug", "not working"}},
	{"integration", []string{"integration", "api"}},
	{"support-request", []string{"support", "help"}},
	{"infrastructure", []string{"downtime", "server"}},
}

var slugUnsafe = regexp.MustCompile(`\s+`)

// DeriveTags is a pure function: same inputs always yield the same tag set.
// Order follows the fixed keyword groups, then issue type, then product.
func DeriveTags(subject, body string, info models.ExtractedInfo) []string {
	text := strings.ToLower(subject + " " + body)

	var tags []string
	seen := map[string]struct{}{}
	add := func(tag string) {
		if tag == "" {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, group := range tagKeywordGroups {
		for _, kw := range group.keywords {
			if strings.Contains(text, kw) {
				add(group.tag)
				break
			}
		}
	}

	add(Slugify(info.IssueType))
	add(Slugify(info.Product))

	return tags
}

// Slugify lowercases and joins whitespace with dashes: "Data Export" ->
// "data-export". Empty input stays empty.
func Slugify(v string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "" {
		return ""
	}
	return slugUnsafe.ReplaceAllString(v, "-")
}
