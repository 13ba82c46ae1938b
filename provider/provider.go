// Package provider is the registry of built-in source and embed drivers.
package provider

import (
	"strings"
	"sync"

	"github.com/cinesrc/cinesrc/provider/embeds/megacloud"
	"github.com/cinesrc/cinesrc/provider/embeds/smashyplayer"
	"github.com/cinesrc/cinesrc/provider/embeds/vidsrcpro"
	"github.com/cinesrc/cinesrc/provider/sources/hurawatch"
	"github.com/cinesrc/cinesrc/provider/sources/m4ufree"
	"github.com/cinesrc/cinesrc/provider/sources/smashystream"
	"github.com/cinesrc/cinesrc/source"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

var (
	sources = sync.OnceValue(func() []*source.Sourcerer {
		return byRank([]*source.Sourcerer{
			hurawatch.New(hurawatch.BaseURL),
			m4ufree.New(m4ufree.BaseURL),
			smashystream.New(smashystream.BaseURL, ""),
		}, func(s *source.Sourcerer) source.Meta { return s.Meta })
	})

	embeds = sync.OnceValue(func() []*source.Embed {
		return byRank([]*source.Embed{
			megacloud.New(),
			megacloud.NewCDN(),
			vidsrcpro.NewJett(),
			vidsrcpro.NewViper(),
			smashyplayer.NewF(),
			smashyplayer.NewO(),
		}, func(e *source.Embed) source.Meta { return e.Meta })
	})
)

func byRank[T any](drivers []T, meta func(T) source.Meta) []T {
	slices.SortStableFunc(drivers, func(a, b T) int {
		return meta(b).Rank - meta(a).Rank
	})
	return drivers
}

// Sources returns every source driver, highest rank first.
func Sources() []*source.Sourcerer {
	return slices.Clone(sources())
}

// Embeds returns every embed driver, highest rank first.
func Embeds() []*source.Embed {
	return slices.Clone(embeds())
}

// GetSource finds a source driver by id.
func GetSource(id string) (*source.Sourcerer, bool) {
	return lo.Find(sources(), func(s *source.Sourcerer) bool {
		return s.ID == id
	})
}

// GetEmbed finds an embed driver by id.
func GetEmbed(id string) (*source.Embed, bool) {
	return lo.Find(embeds(), func(e *source.Embed) bool {
		return e.ID == id
	})
}

// IDs returns the ids of every driver, sources first.
func IDs() []string {
	ids := lo.Map(sources(), func(s *source.Sourcerer, _ int) string { return s.ID })
	return append(ids, lo.Map(embeds(), func(e *source.Embed, _ int) string { return e.ID })...)
}

// Suggest returns the registered id closest to id, for "did you mean" messages.
func Suggest(id string) string {
	return lo.MinBy(IDs(), func(a, b string) bool {
		return levenshtein.Distance(id, a) < levenshtein.Distance(id, b)
	})
}

// Search returns the ids fuzzy-matching pattern. An empty pattern matches all.
func Search(pattern string) []string {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return IDs()
	}
	return fuzzy.FindFold(pattern, IDs())
}
