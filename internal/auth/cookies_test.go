package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "cookies.json"), ".facebook.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCookieFile)
}

func TestLoadPuppeteerExport(t *testing.T) {
	path := writeFile(t, `[
		{"name":"c_user","value":"1000","domain":".facebook.com","path":"/","expires":1893456000,"httpOnly":false,"secure":true,"session":false,"sameSite":"None"},
		{"name":"presence","value":"x","domain":".facebook.com","path":"/","expires":-1,"httpOnly":false,"secure":true,"session":true}
	]`)

	cookies, err := Load(path, ".facebook.com")
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	assert.Equal(t, "c_user", cookies[0].Name)
	assert.Equal(t, "1000", cookies[0].Value)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, network.CookieSameSiteNone, cookies[0].SameSite)
	require.NotNil(t, cookies[0].Expires)
	assert.Equal(t, int64(1893456000), cookies[0].Expires.Time().Unix())

	assert.Equal(t, "presence", cookies[1].Name)
	assert.Nil(t, cookies[1].Expires)
}

func TestLoadExtensionExport(t *testing.T) {
	path := writeFile(t, `[
		{"domain":".facebook.com","expirationDate":1893456000.5,"hostOnly":false,"httpOnly":true,"name":"xs","path":"/","sameSite":"no_restriction","secure":true,"session":false,"storeId":"0","value":"abc"},
		{"domain":".facebook.com","hostOnly":false,"httpOnly":false,"name":"wd","path":"/","sameSite":"lax","secure":true,"session":true,"value":"1920x1080"}
	]`)

	cookies, err := Load(path, ".facebook.com")
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	assert.True(t, cookies[0].HTTPOnly)
	assert.Equal(t, network.CookieSameSiteNone, cookies[0].SameSite)
	require.NotNil(t, cookies[0].Expires)
	assert.Equal(t, int64(1893456000), cookies[0].Expires.Time().Unix())

	assert.Equal(t, network.CookieSameSiteLax, cookies[1].SameSite)
	assert.Nil(t, cookies[1].Expires)
}

func TestLoadWrappedForm(t *testing.T) {
	path := writeFile(t, `{"cookies":[{"name":"c_user","value":"1"}],"captured_at":"2025-01-01T00:00:00Z"}`)

	cookies, err := Load(path, ".facebook.com")
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, ".facebook.com", cookies[0].Domain)
	assert.Equal(t, "/", cookies[0].Path)
}

func TestLoadPreservesOrder(t *testing.T) {
	path := writeFile(t, `[{"name":"a","value":"1"},{"name":"b","value":"2"},{"name":"c","value":"3"}]`)

	cookies, err := Load(path, ".facebook.com")
	require.NoError(t, err)

	var names []string
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestLoadMalformed(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		want    error
	}{
		{name: "not json", content: `c_user=1; xs=2`},
		{name: "wrong shape", content: `"cookies"`},
		{name: "nameless record", content: `[{"value":"1"}]`},
		{name: "empty array", content: `[]`, want: ErrNoCookies},
		{name: "empty file", content: ``, want: ErrNoCookies},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.content), ".facebook.com")
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrNoCookieFile))

			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
				return
			}
			var parseErr *ParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestParseExpires(t *testing.T) {
	assert.Nil(t, parseExpires(nil))
	assert.Nil(t, parseExpires(float64(-1)))
	assert.Nil(t, parseExpires("garbage"))

	got := parseExpires("2030-01-01T00:00:00Z")
	require.NotNil(t, got)
	assert.Equal(t, 2030, got.Year())

	got = parseExpires("1893456000")
	require.NotNil(t, got)
	assert.Equal(t, int64(1893456000), got.Unix())
}

func TestParseCookieHeader(t *testing.T) {
	cookies, err := ParseCookieHeader(" fr=abc; xs=1%3Ax;c_user=1000; junk ;=empty", ".facebook.com")
	require.NoError(t, err)
	require.Len(t, cookies, 3)

	assert.Equal(t, "fr", cookies[0].Name)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.Equal(t, "xs", cookies[1].Name)
	assert.Equal(t, "1%3Ax", cookies[1].Value)
	assert.Equal(t, "c_user", cookies[2].Name)
	for _, c := range cookies {
		assert.Equal(t, ".facebook.com", c.Domain)
		assert.Equal(t, "/", c.Path)
	}

	_, err = ParseCookieHeader("   ", ".facebook.com")
	assert.ErrorIs(t, err, ErrNoCookies)
}

func TestMissingSessionCookies(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	path := writeFile(t, `[
		{"name":"c_user","value":"1","expires":1893456000},
		{"name":"xs","value":"2","expires":1500000000}
	]`)
	cookies, err := Load(path, ".facebook.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"xs"}, MissingSessionCookies(cookies, SessionCookies, now))
	assert.Empty(t, MissingSessionCookies(cookies, []string{"c_user"}, now))
	assert.Equal(t, []string{"datr"}, MissingSessionCookies(cookies, []string{"datr"}, now))
}
