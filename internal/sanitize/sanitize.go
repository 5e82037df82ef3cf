// Package sanitize cleans remote and user-supplied HTML before it is
// emitted in DTOs. Post content arrives over federation and must never
// reach a client unsanitized.
package sanitize

import "github.com/microcosm-cc/bluemonday"

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.RequireNoReferrerOnLinks(true)
	// Mastodon and friends mark up mentions/hashtags with classes.
	p.AllowAttrs("class").OnElements("a", "span")
	return p
}

// HTML sanitizes a fragment of untrusted HTML. Safe for concurrent use.
func HTML(s string) string {
	return policy.Sanitize(s)
}
