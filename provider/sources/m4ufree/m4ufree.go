// Package m4ufree scrapes M4UFree. The site load balances by redirecting the
// homepage to a numbered mirror, and every later request of the same
// resolution must go to that mirror.
package m4ufree

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cinesrc/cinesrc/log"
	"github.com/cinesrc/cinesrc/network"
	"github.com/cinesrc/cinesrc/session"
	"github.com/cinesrc/cinesrc/source"
	"github.com/samber/mo"
)

const (
	ID      = "m4ufree"
	BaseURL = "https://m4ufree.tv"

	sessionCookie = "laravel_session"
)

// Aliases maps M4UFree server labels onto embed ids.
var Aliases = source.AliasTable{
	"m":  "playm4u-m",
	"nm": "playm4u-nm",
	"h":  "hydrax",
}

var (
	slugPattern  = regexp.MustCompile(`[^a-z0-9A-Z]`)
	titlePattern = regexp.MustCompile(`^(.*?)\s*(?:\(?(\d{4})\)?)?\s*$`)
	csrfPattern  = regexp.MustCompile(`_token:\s?'([^']*)'`)
)

type scraper struct {
	baseURL string
}

// New returns the m4ufree source whose homepage is baseURL.
func New(baseURL string) *source.Sourcerer {
	s := &scraper{baseURL: baseURL}
	return &source.Sourcerer{
		Meta:        source.Meta{ID: ID, Name: "M4UFree", Rank: 125, Flags: source.Flags{}},
		ScrapeMovie: s.scrape,
		ScrapeShow:  s.scrape,
	}
}

func (s *scraper) scrape(ctx context.Context, sc source.Context, media source.Media) (*source.Output, error) {
	logger := log.With(log.Fields{"source": ID, "media": media.String()})

	home, err := sc.Fetcher.Fetch(ctx, s.baseURL, network.Options{})
	if err != nil {
		return nil, err
	}
	origin, err := originOf(home.FinalURL)
	if err != nil {
		return nil, err
	}
	logger.Debugf("using mirror %s", origin)
	opts := network.Options{BaseURL: origin}

	searchType := "movie"
	if media.Kind == source.Show {
		searchType = "tvs"
	}
	search := opts
	search.Query = url.Values{"type": {searchType}}

	slug := slugPattern.ReplaceAllString(strings.ToLower(media.Title), "-")
	doc, err := network.Document(ctx, sc.Fetcher, "/search/"+slug+".html", search)
	if err != nil {
		return nil, err
	}

	found, ok := source.Match(media, ParseSearch(doc))
	if !ok {
		return nil, source.NotFound("no watchable item for %s", media)
	}

	watch := opts
	watch.ReadHeaders = []string{"Set-Cookie"}
	page, err := sc.Fetcher.Fetch(ctx, found.Locator, watch)
	if err != nil {
		return nil, err
	}
	doc, err = network.Parse(page.Body)
	if err != nil {
		return nil, err
	}

	sess, err := newSession(doc, page)
	if err != nil {
		return nil, err
	}

	if media.Kind == source.Show {
		doc, err = s.episodePage(ctx, sc, opts, sess, doc, media)
		if err != nil {
			return nil, err
		}
	}

	var embeds []source.EmbedRef
	for _, server := range ParseServers(doc) {
		embedID, ok := Aliases.Resolve(server.Name)
		if !ok {
			logger.Debugf("skipping server %q", server.Name)
			continue
		}

		iframe, err := s.post(ctx, sc, opts, sess, "/ajax", url.Values{"m4u": {server.Data}})
		if err != nil {
			return nil, err
		}
		src, ok := iframe.Find("iframe").Attr("src")
		if !ok || src == "" {
			continue
		}

		src, err = network.ResolveReference(origin, src)
		if err != nil {
			logger.Warnf("skipping server %q: %v", server.Name, err)
			continue
		}

		embeds = append(embeds, source.EmbedRef{EmbedID: embedID, URL: src})
	}

	return &source.Output{Embeds: embeds}, nil
}

// newSession captures the CSRF token and session cookie of a watch page.
func newSession(doc *goquery.Document, page *network.Response) (session.Session, error) {
	script := doc.Find(`script:contains("_token:")`).First().Text()
	token, err := session.ExtractToken(script, csrfPattern)
	if err != nil {
		return session.Session{}, fmt.Errorf("csrf token: %w: %w", source.ErrMalformed, err)
	}

	cookie, err := session.ExtractCookie(page.Headers, sessionCookie)
	if err != nil {
		return session.Session{}, fmt.Errorf("session cookie: %w: %w", source.ErrMalformed, err)
	}

	return session.New().
		WithToken("_token", token).
		WithCookie(cookie.Name, cookie.Value), nil
}

func (s *scraper) episodePage(ctx context.Context, sc source.Context, opts network.Options, sess session.Session, doc *goquery.Document, media source.Media) (*goquery.Document, error) {
	label := fmt.Sprintf("S%02d-E%02d", media.Season.OrEmpty(), media.Episode.OrEmpty())

	idepisode, ok := doc.Find(fmt.Sprintf(`button:contains("%s")`, label)).Attr("idepisode")
	if !ok || idepisode == "" {
		return nil, source.NotFound("episode %s", label)
	}

	return s.post(ctx, sc, opts, sess, "/ajaxtv", url.Values{"idepisode": {idepisode}})
}

// post sends an ajax form with the session's token and cookie.
func (s *scraper) post(ctx context.Context, sc source.Context, opts network.Options, sess session.Session, path string, form url.Values) (*goquery.Document, error) {
	token, _ := sess.Token("_token")
	form.Set("_token", token)

	opts.Form = form
	opts.Headers = map[string]string{"Cookie": sess.CookieHeader()}
	return network.Document(ctx, sc.Fetcher, path, opts)
}

// Server is one player button of a watch page.
type Server struct {
	Name string
	Data string
}

// ParseSearch reads search cards titled like "Home Alone 1990" or "Avengers Endgame (2019)".
func ParseSearch(doc *goquery.Document) []source.SearchResult {
	var results []source.SearchResult
	doc.Find(".item").Each(func(_ int, el *goquery.Selection) {
		label, _ := el.Find(".imagecover a").Attr("title")
		href, _ := el.Find("a").Attr("href")

		match := titlePattern.FindStringSubmatch(label)
		if match == nil || match[1] == "" || href == "" {
			return
		}

		result := source.SearchResult{Title: match[1], Locator: href}
		if year, err := strconv.Atoi(match[2]); err == nil {
			result.Year = mo.Some(year)
		}
		results = append(results, result)
	})
	return results
}

// ParseServers reads the server buttons of a watch page or episode fragment.
func ParseServers(doc *goquery.Document) []Server {
	var servers []Server
	doc.Find("div.row.justify-content-md-center div.le-server").Each(func(_ int, el *goquery.Selection) {
		span := el.Find("span")
		name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(span.Text())), "#", "")
		data, _ := span.Attr("data")
		if name == "" || data == "" {
			return
		}
		servers = append(servers, Server{Name: name, Data: data})
	})
	return servers
}

func originOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", source.Malformed("homepage resolved to %q", raw)
	}
	return u.Scheme + "://" + u.Host, nil
}
