// Package sanitize strips markup from user-supplied text before it is
// stored. Todo titles, todo content and tag names are plain text; the browser
// UI renders them verbatim, so any HTML a client sends is removed here.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton bluemonday policy for plain-text fields.
// Initialized once via sync.Once for thread-safe lazy initialization.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared strict policy, initializing it on first call.
// The strict policy allows no elements at all; script and style bodies are
// dropped along with their tags.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// maxPasses bounds the strip/decode loop in Text. Each pass that changes
// the value removes at least one tag, so real input settles in two or three.
const maxPasses = 8

// Text removes all HTML markup from input and returns plain text with
// surrounding whitespace trimmed.
//
// Ampersands are escaped before sanitizing so entities the user typed
// ("&amp;", "&lt;b&gt;") stay literal text instead of being decoded into
// characters or markup. bluemonday escapes the text it keeps, which is then
// decoded again. Stripping a tag can splice its neighbours into a new tag
// ("<<b>script>"), so the pass repeats until the value stops changing.
func Text(input string) string {
	s := strings.TrimSpace(input)
	for range maxPasses {
		next := strip(s)
		if next == s {
			return s
		}
		s = next
	}
	// Still changing: return the escaped form, which cannot contain markup.
	return strings.TrimSpace(getPolicy().Sanitize(s))
}

// strip runs one sanitize pass and decodes the escaped result.
func strip(s string) string {
	if s == "" {
		return ""
	}
	escaped := strings.ReplaceAll(s, "&", "&amp;")
	return strings.TrimSpace(html.UnescapeString(getPolicy().Sanitize(escaped)))
}
