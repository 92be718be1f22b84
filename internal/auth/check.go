package auth

import (
	"time"

	"github.com/chromedp/cdproto/network"
)

// SessionCookies are the cookies the site needs for a logged-in session
var SessionCookies = []string{"c_user", "xs"}

// MissingSessionCookies lists which of required are absent, empty or
// already expired at now. It never fails a run; callers log the result.
func MissingSessionCookies(cookies []*network.CookieParam, required []string, now time.Time) []string {
	valid := make(map[string]bool, len(cookies))
	for _, c := range cookies {
		if c.Value == "" {
			continue
		}
		if c.Expires != nil && c.Expires.Time().Before(now) {
			continue
		}
		valid[c.Name] = true
	}

	var missing []string
	for _, name := range required {
		if !valid[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
