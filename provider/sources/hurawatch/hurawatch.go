// Package hurawatch scrapes HuraWatch, a FlixHQ-style catalogue.
package hurawatch

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cinesrc/cinesrc/log"
	"github.com/cinesrc/cinesrc/network"
	"github.com/cinesrc/cinesrc/provider/embeds/megacloud"
	"github.com/cinesrc/cinesrc/source"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

const (
	ID      = "hurawatch"
	BaseURL = "https://hurawatchz.to"
)

// Aliases maps HuraWatch server names onto embed drivers.
// Both servers are the same MegaCloud backend with different stream flags.
var Aliases = source.AliasTable{
	"upcloud":   megacloud.ID,
	"megacloud": megacloud.CDNID,
}

var (
	slugPattern     = regexp.MustCompile(`[^a-zA-Z0-9]`)
	releasedPattern = regexp.MustCompile(`Released:</span>\s*(\d{4})-`)
	episodePattern  = regexp.MustCompile(`Eps (\d+):`)
)

// Season is one entry of the season dropdown.
type Season struct {
	ID     string
	Number int
}

// Episode is one entry of a season's episode list.
type Episode struct {
	ID     string
	Number int
}

// Server is one entry of a server list.
type Server struct {
	Name string
	ID   string
}

type scraper struct {
	baseURL string
}

// New returns the hurawatch source reading from baseURL.
func New(baseURL string) *source.Sourcerer {
	s := &scraper{baseURL: strings.TrimSuffix(baseURL, "/")}
	return &source.Sourcerer{
		Meta: source.Meta{
			ID:    ID,
			Name:  "HuraWatch",
			Rank:  128,
			Flags: source.NewFlags(source.FlagCORSAllowed),
		},
		ScrapeMovie: s.scrape,
		ScrapeShow:  s.scrape,
	}
}

func (s *scraper) opts() network.Options {
	return network.Options{BaseURL: s.baseURL}
}

func (s *scraper) scrape(ctx context.Context, sc source.Context, media source.Media) (*source.Output, error) {
	logger := log.With(log.Fields{"source": ID, "media": media.String()})

	doc, err := network.Document(ctx, sc.Fetcher, "/search/"+slugPattern.ReplaceAllString(media.Title, "-"), s.opts())
	if err != nil {
		return nil, err
	}
	results := ParseSearch(doc)
	logger.Debugf("%d search results", len(results))

	var id string
	switch media.Kind {
	case source.Movie:
		if found, ok := source.Match(media, results); ok {
			id = locatorID(found.Locator)
		}
	case source.Show:
		id, err = s.findEpisode(ctx, sc, media, results, logger)
		if err != nil {
			return nil, err
		}
	}

	if id == "" {
		return nil, source.NotFound("no watchable item for %s", media)
	}

	servers, err := s.servers(ctx, sc, media.Kind, id)
	if err != nil {
		return nil, err
	}

	embeds, err := s.embeds(ctx, sc, servers, logger)
	if err != nil {
		return nil, err
	}
	return &source.Output{Embeds: embeds}, nil
}

// findEpisode resolves a show result to an episode id. Search results don't
// carry years for shows, so the year is read from each candidate's details page.
func (s *scraper) findEpisode(ctx context.Context, sc source.Context, media source.Media, results []source.SearchResult, logger *log.Entry) (string, error) {
	candidates := lo.Filter(results, func(r source.SearchResult, _ int) bool {
		kind, hasKind := r.Kind.Get()
		if hasKind && kind != source.Show {
			return false
		}
		if !hasKind && r.Year.IsPresent() {
			return false
		}
		return source.CompareTitle(media.Title, r.Title)
	})

	for _, candidate := range candidates {
		details, err := network.Text(ctx, sc.Fetcher, candidate.Locator, s.opts())
		if err != nil {
			return "", err
		}

		match := releasedPattern.FindStringSubmatch(details)
		if match == nil {
			logger.Debugf("no release year on %s", candidate.Locator)
			continue
		}
		year, _ := strconv.Atoi(match[1])
		if !source.Compare(media, candidate.Title, mo.Some(year)) {
			continue
		}

		showID := locatorID(candidate.Locator)
		if showID == "" {
			continue
		}
		return s.episodeID(ctx, sc, media, showID)
	}

	return "", nil
}

func (s *scraper) episodeID(ctx context.Context, sc source.Context, media source.Media, showID string) (string, error) {
	doc, err := network.Document(ctx, sc.Fetcher, "/ajax/season/list/"+showID, s.opts())
	if err != nil {
		return "", err
	}
	seasons, err := ParseSeasons(doc)
	if err != nil {
		return "", err
	}
	seasonID, err := FindSeason(seasons, media.Season.OrEmpty())
	if err != nil {
		return "", err
	}

	doc, err = network.Document(ctx, sc.Fetcher, "/ajax/season/episodes/"+seasonID, s.opts())
	if err != nil {
		return "", err
	}
	episodes, err := ParseEpisodes(doc)
	if err != nil {
		return "", err
	}
	return FindEpisode(episodes, media.Episode.OrEmpty())
}

func (s *scraper) servers(ctx context.Context, sc source.Context, kind source.Kind, id string) ([]Server, error) {
	endpoint, attr := "list", "data-linkid"
	if kind == source.Show {
		endpoint, attr = "servers", "data-id"
	}

	doc, err := network.Document(ctx, sc.Fetcher, "/ajax/episode/"+endpoint+"/"+id, s.opts())
	if err != nil {
		return nil, err
	}
	return ParseServers(doc, attr)
}

type linkResponse struct {
	Type string `json:"type"`
	Link string `json:"link"`
}

// embeds resolves the link of every server with a known alias. Servers
// without one are skipped without a request.
func (s *scraper) embeds(ctx context.Context, sc source.Context, servers []Server, logger *log.Entry) ([]source.EmbedRef, error) {
	var refs []source.EmbedRef
	for _, server := range servers {
		embedID, ok := Aliases.Resolve(server.Name)
		if !ok {
			logger.Debugf("skipping server %q", server.Name)
			continue
		}

		link, err := network.JSON[linkResponse](ctx, sc.Fetcher, "/ajax/episode/sources/"+server.ID, s.opts())
		if err != nil {
			return nil, err
		}
		if link.Link == "" {
			continue
		}

		u, err := network.ResolveReference(s.baseURL, link.Link)
		if err != nil {
			logger.Warnf("skipping server %q: %v", server.Name, err)
			continue
		}

		refs = append(refs, source.EmbedRef{EmbedID: embedID, URL: u})
	}
	return refs, nil
}

// ParseSearch reads the result cards of a search page.
func ParseSearch(doc *goquery.Document) []source.SearchResult {
	var results []source.SearchResult
	doc.Find("div.film-detail").Each(func(_ int, el *goquery.Selection) {
		link := el.Find("h2.film-name a")
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return
		}

		result := source.SearchResult{Title: title, Locator: href}
		if year, err := strconv.Atoi(strings.TrimSpace(el.Find("span.fdi-item").First().Text())); err == nil && year > 0 {
			result.Year = mo.Some(year)
		}
		switch strings.TrimSpace(el.Find("span.fdi-type").Text()) {
		case "TV":
			result.Kind = mo.Some(source.Show)
		case "Movie":
			result.Kind = mo.Some(source.Movie)
		}

		results = append(results, result)
	})
	return results
}

// ParseSeasons reads a season dropdown whose entries read "Season N".
func ParseSeasons(doc *goquery.Document) ([]Season, error) {
	var (
		seasons []Season
		err     error
	)
	doc.Find(".dropdown-menu a").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		id, _ := el.Attr("data-id")
		fields := strings.Fields(el.Text())
		if id == "" || len(fields) < 2 {
			err = source.Malformed("invalid season entry %q", el.Text())
			return false
		}

		number, convErr := strconv.Atoi(fields[1])
		if convErr != nil {
			err = source.Malformed("invalid season number %q", fields[1])
			return false
		}

		seasons = append(seasons, Season{ID: id, Number: number})
		return true
	})
	return seasons, err
}

// ParseEpisodes reads an episode list whose titles read "Eps N: Name".
func ParseEpisodes(doc *goquery.Document) ([]Episode, error) {
	var (
		episodes []Episode
		err      error
	)
	doc.Find(".eps-item").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		id, _ := el.Attr("data-id")
		title, _ := el.Attr("title")
		match := episodePattern.FindStringSubmatch(title)
		if id == "" || match == nil {
			err = source.Malformed("invalid episode entry %q", title)
			return false
		}

		number, _ := strconv.Atoi(match[1])
		episodes = append(episodes, Episode{ID: id, Number: number})
		return true
	})
	return episodes, err
}

// ParseServers reads a server list. attr names the attribute holding the
// server id, which differs between movie and episode pages.
func ParseServers(doc *goquery.Document, attr string) ([]Server, error) {
	var (
		servers []Server
		err     error
	)
	doc.Find(".nav-item a").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		title, _ := el.Attr("title")
		id, _ := el.Attr(attr)
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(title, "Server ")))
		if name == "" || id == "" {
			err = source.Malformed("invalid server entry %q", title)
			return false
		}

		servers = append(servers, Server{Name: name, ID: id})
		return true
	})
	return servers, err
}

// FindSeason returns the id of season number.
func FindSeason(seasons []Season, number int) (string, error) {
	season, ok := lo.Find(seasons, func(s Season) bool { return s.Number == number })
	if !ok {
		return "", source.NotFound("season %d", number)
	}
	return season.ID, nil
}

// FindEpisode returns the id of episode number.
func FindEpisode(episodes []Episode, number int) (string, error) {
	episode, ok := lo.Find(episodes, func(e Episode) bool { return e.Number == number })
	if !ok {
		return "", source.NotFound("episode %d", number)
	}
	return episode.ID, nil
}

// locatorID is the trailing "-<id>" of a catalogue path such as /movie/watch-example-movie-12345.
func locatorID(locator string) string {
	i := strings.LastIndex(locator, "-")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(locator[i+1:])
}
