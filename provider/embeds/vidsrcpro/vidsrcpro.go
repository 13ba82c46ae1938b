// Package vidsrcpro resolves the Jett and Viper players, which share one API.
package vidsrcpro

import (
	"context"
	"net/url"

	"github.com/cinesrc/cinesrc/caption"
	"github.com/cinesrc/cinesrc/log"
	"github.com/cinesrc/cinesrc/network"
	"github.com/cinesrc/cinesrc/source"
)

const (
	JettID  = "jett"
	ViperID = "viper"
)

type embedResponse struct {
	Source     string `json:"source"`
	Thumbnails string `json:"thumbnails"`
	Subtitles  []struct {
		File  string `json:"file"`
		Label string `json:"label"`
	} `json:"subtitles"`
}

// NewJett returns the jett embed driver.
func NewJett() *source.Embed {
	return &source.Embed{
		Meta:   source.Meta{ID: JettID, Name: "Jett", Rank: 300, Flags: source.NewFlags(source.FlagIPLocked)},
		Scrape: scrapeJett,
	}
}

// NewViper returns viper, which serves jett's output unchanged.
func NewViper() *source.Embed {
	return &source.Embed{
		Meta:   source.Meta{ID: ViperID, Name: "Viper", Rank: 301, Flags: source.NewFlags(source.FlagIPLocked)},
		Scrape: scrapeViper,
	}
}

func scrapeJett(ctx context.Context, sc source.Context, u string) (*source.EmbedOutput, error) {
	return scrape(ctx, sc, u, log.With(log.Fields{"embed": JettID, "url": u}))
}

// scrapeViper serves the jett player under its own id.
func scrapeViper(ctx context.Context, sc source.Context, u string) (*source.EmbedOutput, error) {
	return scrape(ctx, sc, u, log.With(log.Fields{"embed": ViperID, "url": u}))
}

func scrape(ctx context.Context, sc source.Context, u string, logger *log.Entry) (*source.EmbedOutput, error) {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return nil, source.Malformed("embed url %q", u)
	}

	logger.Debug("fetching player data")

	res, err := network.JSON[embedResponse](ctx, sc.Fetcher, u, network.Options{
		Headers: map[string]string{"Referer": u},
	})
	if err != nil {
		return nil, err
	}

	if res.Source == "" {
		return nil, source.NotFound("no watchable item at %s", u)
	}

	var captions []source.Caption
	for _, sub := range res.Subtitles {
		if c, ok := caption.FromTrack(sub.Label, sub.File); ok {
			captions = append(captions, c)
		}
	}

	var thumbnails *source.ThumbnailTrack
	if res.Thumbnails != "" {
		thumbnails = &source.ThumbnailTrack{Type: string(source.VTT), URL: res.Thumbnails}
	}

	return &source.EmbedOutput{
		Stream: []source.Stream{{
			ID:             "primary",
			Type:           source.HLS,
			Playlist:       res.Source,
			Headers:        map[string]string{"Referer": parsed.Scheme + "://" + parsed.Host},
			ThumbnailTrack: thumbnails,
			Captions:       caption.Sanitize(captions),
			Flags:          source.NewFlags(source.FlagIPLocked),
		}},
	}, nil
}
