package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
)

var (
	// ErrNoCookieFile is returned when the cookie file does not exist.
	ErrNoCookieFile = errors.New("cookie file not found")
	// ErrNoCookies is returned when a cookie source holds no records.
	ErrNoCookies = errors.New("no cookies in source")
)

// ParseError is returned when a cookie file exists but cannot be decoded
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse cookie file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// cookieRecord is one exported cookie. It covers puppeteer's page.cookies()
// output, cookie-editor extension exports and our own stored cookie files.
type cookieRecord struct {
	Name           string `json:"name"`
	Value          string `json:"value"`
	Domain         string `json:"domain"`
	Path           string `json:"path"`
	URL            string `json:"url"`
	Secure         bool   `json:"secure"`
	HTTPOnly       bool   `json:"httpOnly"`
	Session        bool   `json:"session"`
	SameSite       string `json:"sameSite"`
	Expires        any    `json:"expires"`
	ExpirationDate any    `json:"expirationDate"`
}

// storedCookies is the wrapped form, {"cookies": [...]}
type storedCookies struct {
	Cookies []cookieRecord `json:"cookies"`
}

// Load reads an exported cookie file. Records without a domain get
// defaultDomain and records without a path get "/".
func Load(path, defaultDomain string) ([]*network.CookieParam, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoCookieFile, path)
		}
		return nil, err
	}

	records, err := decode(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCookies, path)
	}

	cookies := make([]*network.CookieParam, 0, len(records))
	for i, r := range records {
		if r.Name == "" {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("cookie %d has no name", i)}
		}
		cookies = append(cookies, r.toParam(defaultDomain))
	}

	return cookies, nil
}

// decode accepts both `Cookie[]` and `{ cookies: Cookie[] }`.
func decode(data []byte) ([]cookieRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '{' {
		var stored storedCookies
		if err := json.Unmarshal(data, &stored); err != nil {
			return nil, err
		}
		return stored.Cookies, nil
	}

	var records []cookieRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r cookieRecord) toParam(defaultDomain string) *network.CookieParam {
	p := &network.CookieParam{
		Name:     r.Name,
		Value:    r.Value,
		Domain:   r.Domain,
		Path:     r.Path,
		URL:      r.URL,
		Secure:   r.Secure,
		HTTPOnly: r.HTTPOnly,
		SameSite: parseSameSite(r.SameSite),
	}
	if p.Domain == "" && p.URL == "" {
		p.Domain = defaultDomain
	}
	if p.Path == "" {
		p.Path = "/"
	}

	if !r.Session {
		exp := parseExpires(r.Expires)
		if exp == nil {
			exp = parseExpires(r.ExpirationDate)
		}
		if exp != nil {
			t := cdp.TimeSinceEpoch(*exp)
			p.Expires = &t
		}
	}

	return p
}

// parseSameSite maps both CDP spellings and extension spellings.
// Unknown values leave the attribute unset so the browser default applies.
func parseSameSite(s string) network.CookieSameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return network.CookieSameSiteStrict
	case "lax":
		return network.CookieSameSiteLax
	case "none", "no_restriction":
		return network.CookieSameSiteNone
	default:
		return ""
	}
}

// parseExpires accepts unix seconds (number or numeric string) and RFC 3339.
// Session markers (-1, 0) yield nil.
func parseExpires(v any) *time.Time {
	var sec float64
	switch vv := v.(type) {
	case nil:
		return nil
	case float64:
		sec = vv
	case string:
		if vv == "" {
			return nil
		}
		if t, err := time.Parse(time.RFC3339, vv); err == nil {
			tt := t.UTC()
			return &tt
		}
		f, err := strconv.ParseFloat(vv, 64)
		if err != nil {
			return nil
		}
		sec = f
	default:
		return nil
	}

	if sec <= 0 {
		return nil
	}
	whole := int64(sec)
	t := time.Unix(whole, int64((sec-float64(whole))*float64(time.Second))).UTC()
	return &t
}

// ParseCookieHeader turns a pasted Cookie header ("a=1; b=2") into cookie
// params scoped to domain.
func ParseCookieHeader(header, domain string) ([]*network.CookieParam, error) {
	var cookies []*network.CookieParam
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		cookies = append(cookies, &network.CookieParam{
			Name:   name,
			Value:  strings.TrimSpace(value),
			Domain: domain,
			Path:   "/",
		})
	}

	if len(cookies) == 0 {
		return nil, fmt.Errorf("%w: cookie header", ErrNoCookies)
	}
	return cookies, nil
}
