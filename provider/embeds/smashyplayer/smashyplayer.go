// Package smashyplayer resolves the SmashyStream players handed out by the
// smashystream source.
package smashyplayer

import (
	"context"
	"regexp"
	"strings"

	"github.com/cinesrc/cinesrc/caption"
	"github.com/cinesrc/cinesrc/log"
	"github.com/cinesrc/cinesrc/network"
	"github.com/cinesrc/cinesrc/source"
)

const (
	FID = "smashystream-f"
	OID = "smashystream-o"
)

type playerResponse struct {
	SourceURLs   []string `json:"sourceUrls"`
	SubtitleURLs string   `json:"subtitleUrls"`
}

// NewF returns the smashystream-f embed driver.
func NewF() *source.Embed {
	return &source.Embed{
		Meta:   source.Meta{ID: FID, Name: "SmashyStream (F)", Rank: 71, Flags: source.NewFlags(source.FlagCORSAllowed)},
		Scrape: scrapeF,
	}
}

// NewO returns smashystream-o. It is the F player behind another id.
func NewO() *source.Embed {
	return &source.Embed{
		Meta:   source.Meta{ID: OID, Name: "SmashyStream (O)", Rank: 70, Flags: source.NewFlags(source.FlagCORSAllowed)},
		Scrape: scrapeO,
	}
}

func scrapeF(ctx context.Context, sc source.Context, u string) (*source.EmbedOutput, error) {
	return scrape(ctx, sc, u, log.With(log.Fields{"embed": FID, "url": u}))
}

func scrapeO(ctx context.Context, sc source.Context, u string) (*source.EmbedOutput, error) {
	return scrape(ctx, sc, u, log.With(log.Fields{"embed": OID, "url": u}))
}

func scrape(ctx context.Context, sc source.Context, u string, logger *log.Entry) (*source.EmbedOutput, error) {
	logger.Debug("fetching player")

	res, err := network.JSON[playerResponse](ctx, sc.Fetcher, u, network.Options{
		Headers: map[string]string{"Referer": u},
	})
	if err != nil {
		return nil, err
	}

	if len(res.SourceURLs) == 0 || res.SourceURLs[0] == "" {
		return nil, source.NotFound("no player source at %s", u)
	}

	return &source.EmbedOutput{
		Stream: []source.Stream{{
			ID:       "primary",
			Type:     source.HLS,
			Playlist: res.SourceURLs[0],
			Flags:    source.NewFlags(source.FlagCORSAllowed),
			Captions: ParseSubtitles(res.SubtitleURLs),
		}},
	}, nil
}

var subtitlePattern = regexp.MustCompile(`^\[(.+?)\](.+)$`)

// ParseSubtitles reads the "[Label]url,[Label]url" list of the player API.
func ParseSubtitles(list string) []source.Caption {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil
	}

	parts := strings.Split(list, ",[")
	for i := 1; i < len(parts); i++ {
		parts[i] = "[" + parts[i]
	}

	var captions []source.Caption
	for _, part := range parts {
		match := subtitlePattern.FindStringSubmatch(strings.TrimSpace(part))
		if match == nil {
			continue
		}
		if c, ok := caption.FromTrack(match[1], strings.TrimSpace(match[2])); ok {
			captions = append(captions, c)
		}
	}
	return caption.Sanitize(captions)
}
