// Package megacloud resolves MegaCloud players and their MegaCdn twin.
package megacloud

import (
	"context"
	"net/url"
	"path"

	"github.com/cinesrc/cinesrc/caption"
	"github.com/cinesrc/cinesrc/log"
	"github.com/cinesrc/cinesrc/network"
	"github.com/cinesrc/cinesrc/source"
	"github.com/samber/lo"
)

const (
	ID    = "megacloud"
	CDNID = "megacdn"
)

type sourcesResponse struct {
	Server  int `json:"server"`
	Sources []struct {
		File string `json:"file"`
		Type string `json:"type"`
	} `json:"sources"`
	Tracks []struct {
		File  string `json:"file"`
		Kind  string `json:"kind"`
		Label string `json:"label"`
	} `json:"tracks"`
}

// New returns the megacloud embed driver.
func New() *source.Embed {
	return &source.Embed{
		Meta: source.Meta{
			ID:    ID,
			Name:  "MegaCloud",
			Rank:  305,
			Flags: source.NewFlags(source.FlagCORSAllowed),
		},
		Scrape: scrapeCloud,
	}
}

// NewCDN returns megacdn: the megacloud stream with every flag cleared.
func NewCDN() *source.Embed {
	return &source.Embed{
		Meta:   source.Meta{ID: CDNID, Name: "MegaCdn", Rank: 304, Flags: source.Flags{}},
		Scrape: scrapeCDN,
	}
}

func scrapeCloud(ctx context.Context, sc source.Context, u string) (*source.EmbedOutput, error) {
	return scrape(ctx, sc, u, log.With(log.Fields{"embed": ID, "url": u}))
}

func scrapeCDN(ctx context.Context, sc source.Context, u string) (*source.EmbedOutput, error) {
	out, err := scrape(ctx, sc, u, log.With(log.Fields{"embed": CDNID, "url": u}))
	if err != nil {
		return nil, err
	}

	return &source.EmbedOutput{
		Stream: lo.Map(out.Stream, func(s source.Stream, _ int) source.Stream {
			s.Flags = source.Flags{}
			return s
		}),
	}, nil
}

func scrape(ctx context.Context, sc source.Context, u string, logger *log.Entry) (*source.EmbedOutput, error) {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return nil, source.Malformed("embed url %q", u)
	}

	origin := parsed.Scheme + "://" + parsed.Host
	dataID := path.Base(parsed.Path)
	if dataID == "" || dataID == "/" || dataID == "." {
		return nil, source.Malformed("no data id in %q", u)
	}

	logger.WithField("id", dataID).Debug("fetching sources")

	res, err := network.JSON[sourcesResponse](ctx, sc.Fetcher, origin+"/embed-2/ajax/e-1/getSources", network.Options{
		Query: url.Values{"id": {dataID}},
		Headers: map[string]string{
			"Referer":          origin,
			"X-Requested-With": "XMLHttpRequest",
		},
	})
	if err != nil {
		return nil, err
	}

	if len(res.Sources) == 0 {
		return nil, source.NotFound("megacloud %s has no sources", dataID)
	}
	if res.Sources[0].File == "" {
		return nil, source.Malformed("megacloud %s: source without file", dataID)
	}

	captions := make([]source.Caption, 0, len(res.Tracks))
	for _, track := range res.Tracks {
		if track.Kind != "captions" {
			continue
		}
		if c, ok := caption.FromTrack(track.Label, track.File); ok {
			captions = append(captions, c)
		}
	}

	return &source.EmbedOutput{
		Stream: []source.Stream{{
			ID:       "primary",
			Type:     source.HLS,
			Playlist: res.Sources[0].File,
			Flags:    source.NewFlags(source.FlagCORSAllowed),
			Captions: caption.Sanitize(captions),
			PreferredHeaders: map[string]string{
				"Referer": origin,
				"Origin":  origin,
			},
		}},
	}, nil
}
