// ABOUTME: Cookie accessor for the client's credential jar
// ABOUTME: Reads the CSRF cookie the backend sets on /api/accounts/csrf/

package client

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"
)

// CSRFCookieName is the cookie the backend uses for its anti-forgery token
const CSRFCookieName = "csrftoken"

// newJar creates the cookie jar that makes every request credentialed
func newJar() http.CookieJar {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		// cookiejar.New never fails with a non-nil options struct
		panic(err)
	}
	return jar
}

// cookieValue returns the value of the named cookie scoped to u, or "" if absent
func cookieValue(jar http.CookieJar, u *url.URL, name string) string {
	if jar == nil || u == nil {
		return ""
	}
	for _, c := range jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// CookieValue returns the named cookie for the API base URL
func (c *Client) CookieValue(name string) string {
	return cookieValue(c.httpClient.Jar, c.base, name)
}
