package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

// Policy sanitizes placement text with a user-generated-content policy.
// It allows the inline markup editors put in titles and descriptions and
// drops scripts, styles and event handlers.
type Policy struct {
	policy *bluemonday.Policy
}

// NewPolicy builds the placement policy.
func NewPolicy() *Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption", "mark")
	policy.AllowAttrs("class").OnElements("span", "p", "mark")
	policy.AllowAttrs("target").Matching(bluemonday.Paragraph).OnElements("a")
	return &Policy{policy: policy}
}

// Sanitize returns s with disallowed tags and attributes removed.
func (p *Policy) Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return p.policy.Sanitize(s)
}
