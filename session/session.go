// Package session threads tokens and cookies across the sequential requests
// of one resolution attempt.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
)

var (
	ErrMissingToken  = errors.New("token not found")
	ErrMissingCookie = errors.New("cookie not found")
)

// Session is an immutable bag of tokens and cookies. Every With* call
// returns a new Session and leaves the receiver untouched, so a step can
// never observe state written by a later one.
type Session struct {
	tokens  map[string]string
	cookies map[string]string
}

// New returns an empty session.
func New() Session {
	return Session{}
}

// WithToken returns a copy of s holding token name.
func (s Session) WithToken(name, value string) Session {
	return Session{tokens: with(s.tokens, name, value), cookies: s.cookies}
}

// WithCookie returns a copy of s holding cookie name.
func (s Session) WithCookie(name, value string) Session {
	return Session{tokens: s.tokens, cookies: with(s.cookies, name, value)}
}

func (s Session) Token(name string) (string, bool) {
	v, ok := s.tokens[name]
	return v, ok
}

func (s Session) Cookie(name string) (string, bool) {
	v, ok := s.cookies[name]
	return v, ok
}

// CookieHeader renders the cookies as a Cookie request header value,
// sorted by name.
func (s Session) CookieHeader() string {
	names := lo.Keys(s.cookies)
	sort.Strings(names)

	pairs := lo.Map(names, func(name string, _ int) string {
		return name + "=" + s.cookies[name]
	})
	return strings.Join(pairs, "; ")
}

func with(m map[string]string, k, v string) map[string]string {
	out := make(map[string]string, len(m)+1)
	for key, value := range m {
		out[key] = value
	}
	out[k] = v
	return out
}

// ExtractToken returns the first capture group of pattern in body.
func ExtractToken(body string, pattern *regexp.Regexp) (string, error) {
	match := pattern.FindStringSubmatch(body)
	if len(match) < 2 || match[1] == "" {
		return "", fmt.Errorf("%s: %w", pattern, ErrMissingToken)
	}
	return match[1], nil
}

// ExtractBetween returns the text between the first start marker and the
// next end marker.
func ExtractBetween(body, start, end string) (string, error) {
	_, rest, ok := strings.Cut(body, start)
	if !ok {
		return "", fmt.Errorf("marker %q: %w", start, ErrMissingToken)
	}

	value, _, ok := strings.Cut(rest, end)
	if !ok || value == "" {
		return "", fmt.Errorf("marker %q: %w", end, ErrMissingToken)
	}
	return value, nil
}

// ExtractCookie finds cookie name among the Set-Cookie headers.
func ExtractCookie(headers http.Header, name string) (*http.Cookie, error) {
	cookies := (&http.Response{Header: headers}).Cookies()

	cookie, ok := lo.Find(cookies, func(c *http.Cookie) bool {
		return c.Name == name
	})
	if !ok || cookie.Value == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingCookie)
	}
	return cookie, nil
}
