// Package captcha obtains an invisible reCAPTCHA response token the way a
// browser embedding the widget would.
package captcha

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/cinesrc/cinesrc/log"
	"github.com/cinesrc/cinesrc/network"
	"github.com/cinesrc/cinesrc/session"
	"github.com/cinesrc/cinesrc/source"
)

// DefaultBaseURL is the reCAPTCHA endpoint root.
const DefaultBaseURL = "https://www.google.com/recaptcha"

var (
	ErrMissingSiteKey    = fmt.Errorf("missing recaptcha site key: %w", source.ErrMalformed)
	ErrMissingVersion    = fmt.Errorf("missing recaptcha release version: %w", source.ErrMalformed)
	ErrMissingChallenge  = fmt.Errorf("missing recaptcha challenge token: %w", source.ErrMalformed)
	ErrMissingFinalToken = fmt.Errorf("missing recaptcha response token: %w", source.ErrMalformed)
)

var finalTokenPattern = regexp.MustCompile(`rresp","(.+?)"`)

const (
	tokenVersion   = "v"
	tokenChallenge = "c"
	tokenResponse  = "rresp"
)

// Relay runs the render, anchor and reload exchange.
type Relay struct {
	Fetcher network.Fetcher
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
}

func (r Relay) base() string {
	if r.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimSuffix(r.BaseURL, "/")
}

// Token returns a response token for siteKey as if solved on domain.
// Each step is issued exactly once.
func (r Relay) Token(ctx context.Context, domain, siteKey string) (string, error) {
	if siteKey == "" {
		return "", ErrMissingSiteKey
	}

	logger := log.With(log.Fields{"domain": domain})

	s := session.New().WithToken("k", siteKey)
	for _, step := range []struct {
		name string
		run  func(context.Context, string, session.Session) (session.Session, error)
	}{
		{"render", r.render},
		{"anchor", r.anchor},
		{"reload", r.reload},
	} {
		next, err := step.run(ctx, domain, s)
		if err != nil {
			return "", fmt.Errorf("recaptcha %s: %w", step.name, err)
		}
		logger.Debugf("recaptcha %s done", step.name)
		s = next
	}

	token, _ := s.Token(tokenResponse)
	return token, nil
}

func (r Relay) render(ctx context.Context, _ string, s session.Session) (session.Session, error) {
	key, _ := s.Token("k")

	body, err := network.Text(ctx, r.Fetcher, r.base()+"/api.js", network.Options{
		Query: url.Values{"render": {key}},
	})
	if err != nil {
		return s, err
	}

	version, err := ParseVersion(body)
	if err != nil {
		return s, err
	}
	return s.WithToken(tokenVersion, version), nil
}

func (r Relay) anchor(ctx context.Context, domain string, s session.Session) (session.Session, error) {
	key, _ := s.Token("k")
	version, _ := s.Token(tokenVersion)

	resp, err := r.Fetcher.Fetch(ctx, r.base()+"/api2/anchor", network.Options{
		Query: url.Values{
			"cb":   {"1"},
			"hl":   {"en"},
			"size": {"invisible"},
			"k":    {key},
			"co":   {EncodeDomain(domain)},
			"v":    {version},
		},
	})
	if err != nil {
		return s, err
	}

	challenge, err := ParseChallengeToken(resp.Body)
	if err != nil {
		return s, err
	}
	return s.WithToken(tokenChallenge, challenge), nil
}

func (r Relay) reload(ctx context.Context, domain string, s session.Session) (session.Session, error) {
	key, _ := s.Token("k")
	version, _ := s.Token(tokenVersion)
	challenge, _ := s.Token(tokenChallenge)

	body, err := network.Text(ctx, r.Fetcher, r.base()+"/api2/reload", network.Options{
		Method: "POST",
		Query: url.Values{
			"v":      {version},
			"reason": {"q"},
			"k":      {key},
			"c":      {challenge},
			"sa":     {""},
			"co":     {domain},
		},
		Headers: map[string]string{"Referer": r.base() + "/api2/"},
	})
	if err != nil {
		return s, err
	}

	token, err := ParseFinalToken(body)
	if err != nil {
		return s, err
	}
	return s.WithToken(tokenResponse, token), nil
}

// EncodeDomain is the "co" parameter of the anchor request: the base64 of
// domain with padding replaced by dots.
func EncodeDomain(domain string) string {
	return strings.ReplaceAll(base64.StdEncoding.EncodeToString([]byte(domain)), "=", ".")
}

// ParseVersion reads the release version out of the api.js loader.
func ParseVersion(body string) (string, error) {
	version, err := session.ExtractBetween(body, "/releases/", "/recaptcha__en.js")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMissingVersion, err)
	}
	return version, nil
}

// ParseChallengeToken reads the value of #recaptcha-token in the anchor page.
func ParseChallengeToken(body []byte) (string, error) {
	doc, err := network.Parse(body)
	if err != nil {
		return "", err
	}

	token, ok := doc.Find("#recaptcha-token").Attr("value")
	if !ok || token == "" {
		return "", ErrMissingChallenge
	}
	return token, nil
}

// ParseFinalToken reads the response token from the reload payload.
func ParseFinalToken(body string) (string, error) {
	token, err := session.ExtractToken(body, finalTokenPattern)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMissingFinalToken, err)
	}
	return token, nil
}
