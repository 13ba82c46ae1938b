// Package runner drives source and embed drivers for one media query and
// collects their playable streams.
package runner

import (
	"context"
	"fmt"

	"github.com/cinesrc/cinesrc/log"
	"github.com/cinesrc/cinesrc/network"
	"github.com/cinesrc/cinesrc/provider"
	"github.com/cinesrc/cinesrc/source"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the embeds of one source resolved at once.
const DefaultConcurrency = 4

// Registry is the set of drivers a run may use.
type Registry struct {
	Sources []*source.Sourcerer
	Embeds  []*source.Embed
}

// DefaultRegistry holds the built-in drivers.
func DefaultRegistry() *Registry {
	return &Registry{Sources: provider.Sources(), Embeds: provider.Embeds()}
}

func (r *Registry) embed(id string) (*source.Embed, bool) {
	return lo.Find(r.Embeds, func(e *source.Embed) bool { return e.ID == id && !e.Disabled })
}

// Options configures a run.
type Options struct {
	Media source.Media
	// Sources restricts the run to these ids. Empty runs every enabled source.
	Sources []string
	Target  Target
	// ConsistentIP is false when the player may fetch from another address
	// than the resolver, in which case ip-locked streams are dropped.
	ConsistentIP bool
	Concurrency  int
	Fetcher      network.Fetcher
	// Registry defaults to DefaultRegistry.
	Registry *Registry
}

func (o Options) normalize() Options {
	if o.Target == "" {
		o.Target = Native
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Fetcher == nil {
		o.Fetcher = network.NewHTTPFetcher(nil, "")
	}
	if o.Registry == nil {
		o.Registry = DefaultRegistry()
	}
	return o
}

// accepts reports whether a stream can be played under o.
func (o Options) accepts(s source.Stream) bool {
	if !s.IsValid() || !o.Target.Allows(s.Flags) {
		return false
	}
	return o.ConsistentIP || !s.Flags.Has(source.FlagIPLocked)
}

// selectSources picks the sources to run, highest rank first.
func (o Options) selectSources() ([]*source.Sourcerer, error) {
	all := slices.Clone(o.Registry.Sources)
	slices.SortStableFunc(all, func(a, b *source.Sourcerer) int { return b.Rank - a.Rank })

	if len(o.Sources) == 0 {
		return lo.Filter(all, func(s *source.Sourcerer, _ int) bool { return !s.Disabled }), nil
	}

	for _, id := range o.Sources {
		if !lo.ContainsBy(all, func(s *source.Sourcerer) bool { return s.ID == id }) {
			return nil, &UnknownDriverError{ID: id}
		}
	}
	return lo.Filter(all, func(s *source.Sourcerer, _ int) bool {
		return lo.Contains(o.Sources, s.ID)
	}), nil
}

// Run resolves opts.Media on every selected source in rank order.
// When ctx is cancelled no further source is started and the partial report
// is returned along with ctx.Err().
func Run(ctx context.Context, opts Options) (*Report, error) {
	opts = opts.normalize()
	if err := opts.Media.Validate(); err != nil {
		return nil, err
	}

	sources, err := opts.selectSources()
	if err != nil {
		return nil, err
	}

	report := &Report{Media: opts.Media}
	for _, s := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		logger := log.With(log.Fields{"source": s.ID, "media": opts.Media.String()})

		if !s.Supports(opts.Media.Kind) {
			logger.Debugf("does not scrape %ss", opts.Media.Kind)
			continue
		}
		if !opts.Target.Allows(s.Flags) {
			logger.Debugf("cannot serve target %s", opts.Target)
			continue
		}

		logger.Info("scraping")
		out, err := s.Scrape(ctx, source.Context{Fetcher: opts.Fetcher}, opts.Media)
		if err != nil {
			logger.Warnf("source failed: %s", err)
			report.Failures = append(report.Failures, newFailure(s.ID, "", err))
			continue
		}
		if out == nil {
			out = &source.Output{}
		}

		for _, stream := range out.Stream {
			if opts.accepts(stream) {
				report.Results = append(report.Results, Result{SourceID: s.ID, Stream: stream})
			}
		}

		results, failures := runEmbeds(ctx, opts, s.ID, out.Embeds)
		report.Results = append(report.Results, results...)
		report.Failures = append(report.Failures, failures...)
		logger.Infof("%d streams, %d failures", len(results), len(failures))
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// RunEmbed resolves a single embed reference outside of any source.
func RunEmbed(ctx context.Context, opts Options, ref source.EmbedRef) (*Report, error) {
	opts = opts.normalize()
	if _, ok := opts.Registry.embed(ref.EmbedID); !ok {
		return nil, &UnknownDriverError{ID: ref.EmbedID}
	}

	results, failures := runEmbeds(ctx, opts, "", []source.EmbedRef{ref})
	report := &Report{Media: opts.Media, Results: results, Failures: failures}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

type embedOutcome struct {
	embed   *source.Embed
	streams []source.Stream
	failure *Failure
}

// runEmbeds resolves refs concurrently. Results come back sorted by embed
// rank, ties kept in discovery order.
func runEmbeds(ctx context.Context, opts Options, sourceID string, refs []source.EmbedRef) ([]Result, []Failure) {
	outcomes := make([]embedOutcome, len(refs))

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)

	for i, ref := range refs {
		embed, ok := opts.Registry.embed(ref.EmbedID)
		if !ok {
			err := fmt.Errorf("no driver for embed %q: %w", ref.EmbedID, source.ErrUnsupported)
			outcomes[i].failure = lo.ToPtr(newFailure(sourceID, ref.EmbedID, err))
			continue
		}
		outcomes[i].embed = embed

		if err := ref.Validate(); err != nil {
			outcomes[i].failure = lo.ToPtr(newFailure(sourceID, ref.EmbedID, fmt.Errorf("%w: %w", source.ErrMalformed, err)))
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i].failure = lo.ToPtr(newFailure(sourceID, ref.EmbedID, err))
				return nil
			}

			logger := log.With(log.Fields{"source": sourceID, "embed": ref.EmbedID})
			logger.Debugf("resolving %s", ref.URL)

			out, err := embed.Scrape(ctx, source.Context{Fetcher: opts.Fetcher}, ref.URL)
			if err != nil {
				logger.Warnf("embed failed: %s", err)
				outcomes[i].failure = lo.ToPtr(newFailure(sourceID, ref.EmbedID, err))
				return nil
			}
			if out == nil {
				return nil
			}

			outcomes[i].streams = lo.Filter(out.Stream, func(s source.Stream, _ int) bool {
				return opts.accepts(s)
			})
			return nil
		})
	}
	_ = g.Wait()

	var failures []Failure
	for _, o := range outcomes {
		if o.failure != nil {
			failures = append(failures, *o.failure)
		}
	}

	resolved := lo.Filter(outcomes, func(o embedOutcome, _ int) bool { return o.failure == nil })
	slices.SortStableFunc(resolved, func(a, b embedOutcome) int { return b.embed.Rank - a.embed.Rank })

	var results []Result
	for _, o := range resolved {
		for _, stream := range o.streams {
			results = append(results, Result{SourceID: sourceID, EmbedID: o.embed.ID, Stream: stream})
		}
	}
	return results, failures
}
