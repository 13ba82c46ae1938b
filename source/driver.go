package source

import (
	"context"
	"fmt"

	"github.com/cinesrc/cinesrc/network"
)

// Meta is the static registration data of a driver.
type Meta struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Rank orders otherwise equivalent candidates, higher first.
	Rank     int   `json:"rank"`
	Flags    Flags `json:"flags"`
	Disabled bool  `json:"disabled,omitempty"`
}

// Context carries the capabilities of one driver invocation.
// It is created per call and must not be retained by drivers.
type Context struct {
	Fetcher network.Fetcher
}

// ScrapeFunc resolves a media query on one site.
type ScrapeFunc func(ctx context.Context, sc Context, media Media) (*Output, error)

// EmbedFunc resolves one embed URL.
type EmbedFunc func(ctx context.Context, sc Context, url string) (*EmbedOutput, error)

// Sourcerer is a source driver. Either scrape func may be nil when the site
// doesn't carry that kind of media.
type Sourcerer struct {
	Meta
	ScrapeMovie ScrapeFunc
	ScrapeShow  ScrapeFunc
}

// Supports reports whether the driver handles kind.
func (s *Sourcerer) Supports(kind Kind) bool {
	switch kind {
	case Movie:
		return s.ScrapeMovie != nil
	case Show:
		return s.ScrapeShow != nil
	default:
		return false
	}
}

// Scrape dispatches media to the scrape func of its kind.
func (s *Sourcerer) Scrape(ctx context.Context, sc Context, media Media) (*Output, error) {
	if err := media.Validate(); err != nil {
		return nil, err
	}

	var fn ScrapeFunc
	switch media.Kind {
	case Movie:
		fn = s.ScrapeMovie
	case Show:
		fn = s.ScrapeShow
	}
	if fn == nil {
		return nil, fmt.Errorf("%s does not scrape %ss: %w", s.ID, media.Kind, ErrUnsupported)
	}

	return fn(ctx, sc, media)
}

// Embed is an embed driver.
type Embed struct {
	Meta
	Scrape EmbedFunc
}

// AliasTable maps the server names a site displays onto embed driver ids.
type AliasTable map[string]string

// Resolve returns the embed id for a site-local server name.
// Unmapped names report false and are meant to be skipped.
func (t AliasTable) Resolve(name string) (string, bool) {
	id, ok := t[name]
	return id, ok && id != ""
}
