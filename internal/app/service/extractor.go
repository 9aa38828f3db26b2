package service

import (
	"regexp"
	"strings"
)

// CanonicalButtonLabel replaces whatever text the upstream put in its button.
const CanonicalButtonLabel = "See Price at Amazon"

// Upstream markup contracts. The embedding service emits one element per line;
// each pattern below is tied to that layout and to the class names it uses.
var (
	// priceAnchorPattern: the first anchor on a line that goes on to contain a
	// button, through the end of that line. The anchor may close on a later
	// line; price text following it on the same line is kept.
	priceAnchorPattern = regexp.MustCompile(`(?i)<a[^\n]*button[^\n]*`)
	// trailingDivClosePattern: one container close tag at the end of a capture.
	trailingDivClosePattern = regexp.MustCompile(`(?i)\s*</div>\s*$`)
	// anchorOpenPattern: the opening tag of an anchor carrying an href.
	anchorOpenPattern = regexp.MustCompile(`(?i)<a\b[^>]*?\bhref=(?:"[^"]*"|'[^']*')[^>]*>`)
	// buttonPattern: a bare <button> element and everything up to its last close tag.
	buttonPattern = regexp.MustCompile(`(?i)<button>.*</button>`)
	// buttonTextPattern: the contents of that element.
	buttonTextPattern = regexp.MustCompile(`(?i)<button>(.*)</button>`)
	// mediumImagePattern: the img src following the medium-image slot on the same line.
	mediumImagePattern = regexp.MustCompile(`amazon-element-med-image[^\n]*?<img[^>]*?\bsrc="([^"]+)"`)
	// largeImagePattern: the img src following the large-image slot on the same line.
	largeImagePattern = regexp.MustCompile(`amazon-element-lg-image[^\n]*?<img[^>]*?\bsrc="([^"]+)"`)
)

// Extraction holds the sub-fields pulled out of an upstream fragment.
// A field is empty when its pattern did not match.
type Extraction struct {
	PriceButton string
	MediumURL   string
	LargeURL    string
}

// ExtractMarkup parses an upstream fragment. When affiliateLink is set, the
// price anchor is re-pointed at it.
func ExtractMarkup(fragment, affiliateLink string) Extraction {
	return Extraction{
		PriceButton: extractPriceButton(fragment, affiliateLink),
		MediumURL:   firstSubmatch(mediumImagePattern, fragment),
		LargeURL:    firstSubmatch(largeImagePattern, fragment),
	}
}

func extractPriceButton(fragment, affiliateLink string) string {
	anchor := strings.TrimRight(priceAnchorPattern.FindString(fragment), " \t\r")
	if anchor == "" {
		return ""
	}
	anchor = trimUnopenedDivs(anchor)
	if affiliateLink != "" {
		opening := `<a target="_blank" href="` + affiliateLink + `">`
		replaced := false
		anchor = anchorOpenPattern.ReplaceAllStringFunc(anchor, func(tag string) string {
			if replaced {
				return tag
			}
			replaced = true
			return opening
		})
	}
	return CanonicalizeButton(anchor)
}

// CanonicalizeButton swaps the contents of a bare <button> element for the
// canonical label. The captured text is never inspected.
func CanonicalizeButton(markup string) string {
	return buttonPattern.ReplaceAllLiteralString(markup, "<button>"+CanonicalButtonLabel+"</button>")
}

// trimUnopenedDivs drops closing div tags at the end of a line capture whose
// opening tag sits on an earlier line, so the button cannot close the block
// it is placed in.
func trimUnopenedDivs(markup string) string {
	for {
		lower := strings.ToLower(markup)
		if strings.Count(lower, "</div") <= strings.Count(lower, "<div") {
			return markup
		}
		loc := trailingDivClosePattern.FindStringIndex(markup)
		if loc == nil {
			return markup
		}
		markup = markup[:loc[0]]
	}
}

// ButtonText returns what a price button displays. Markup without a bare
// <button> element is returned unchanged.
func ButtonText(priceButton string) string {
	m := buttonTextPattern.FindStringSubmatch(priceButton)
	if m == nil {
		return priceButton
	}
	return m[1]
}

func firstSubmatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
