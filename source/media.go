// Package source defines the domain models and driver contracts of the resolution pipeline.
package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/mo"
)

// Kind distinguishes movies from episodic media.
type Kind string

const (
	Movie Kind = "movie"
	Show  Kind = "show"
)

// ParseKind accepts "movie", "show" and the common "tv" alias.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie":
		return Movie, nil
	case "show", "tv":
		return Show, nil
	default:
		return "", fmt.Errorf("unknown media kind %q", s)
	}
}

// Media is the query of one resolution attempt.
type Media struct {
	Kind  Kind           `json:"kind"`
	Title string         `json:"title"`
	Year  mo.Option[int] `json:"year"`
	// TMDBID is used by sources that key their catalogue by TMDB id.
	TMDBID  string         `json:"tmdbId,omitempty"`
	Season  mo.Option[int] `json:"season"`
	Episode mo.Option[int] `json:"episode"`
}

// NewMovie is a shorthand for a movie query.
func NewMovie(title string, year mo.Option[int]) Media {
	return Media{Kind: Movie, Title: title, Year: year}
}

// NewEpisode is a shorthand for a show episode query.
func NewEpisode(title string, year mo.Option[int], season, episode int) Media {
	return Media{
		Kind:    Show,
		Title:   title,
		Year:    year,
		Season:  mo.Some(season),
		Episode: mo.Some(episode),
	}
}

// Validate reports whether the query can be handed to a driver.
func (m Media) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return errors.New("media title is empty")
	}

	switch m.Kind {
	case Movie:
		return nil
	case Show:
		season, ok := m.Season.Get()
		if !ok || season < 0 {
			return errors.New("show query needs a season number")
		}
		episode, ok := m.Episode.Get()
		if !ok || episode < 0 {
			return errors.New("show query needs an episode number")
		}
		return nil
	default:
		return fmt.Errorf("unknown media kind %q", m.Kind)
	}
}

func (m Media) String() string {
	var b strings.Builder
	b.WriteString(m.Title)
	if year, ok := m.Year.Get(); ok {
		fmt.Fprintf(&b, " (%d)", year)
	}
	if m.Kind == Show {
		fmt.Fprintf(&b, " S%02dE%02d", m.Season.OrEmpty(), m.Episode.OrEmpty())
	}
	return b.String()
}

// SearchResult is a raw candidate scraped from a search or listing page.
type SearchResult struct {
	Title   string
	Year    mo.Option[int]
	Kind    mo.Option[Kind]
	Locator string
}
