package runner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cinesrc/cinesrc/source"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

func hls(id string, flags ...source.Flag) source.Stream {
	return source.Stream{ID: id, Type: source.HLS, Playlist: "https://cdn.example/" + id + ".m3u8", Flags: source.NewFlags(flags...)}
}

func staticEmbed(id string, rank int, streams ...source.Stream) *source.Embed {
	return &source.Embed{
		Meta: source.Meta{ID: id, Name: id, Rank: rank},
		Scrape: func(ctx context.Context, sc source.Context, url string) (*source.EmbedOutput, error) {
			return &source.EmbedOutput{Stream: streams}, nil
		},
	}
}

func failingEmbed(id string, rank int, err error) *source.Embed {
	return &source.Embed{
		Meta: source.Meta{ID: id, Name: id, Rank: rank},
		Scrape: func(ctx context.Context, sc source.Context, url string) (*source.EmbedOutput, error) {
			return nil, err
		},
	}
}

func staticSource(id string, rank int, flags source.Flags, out *source.Output, err error) *source.Sourcerer {
	scrape := func(ctx context.Context, sc source.Context, media source.Media) (*source.Output, error) {
		return out, err
	}
	return &source.Sourcerer{
		Meta:        source.Meta{ID: id, Name: id, Rank: rank, Flags: flags},
		ScrapeMovie: scrape,
		ScrapeShow:  scrape,
	}
}

func ref(id string) source.EmbedRef {
	return source.EmbedRef{EmbedID: id, URL: "https://embed.example/" + id}
}

var movie = source.NewMovie("Example Movie", mo.Some(2020))

func TestRun(t *testing.T) {
	Convey("Given two sources and a set of embeds", t, func() {
		cors := source.NewFlags(source.FlagCORSAllowed)
		registry := &Registry{
			Sources: []*source.Sourcerer{
				staticSource("low", 5, cors, &source.Output{Embeds: []source.EmbedRef{ref("fast")}}, nil),
				staticSource("high", 10, cors, &source.Output{
					Stream: []source.Stream{hls("direct", source.FlagCORSAllowed)},
					Embeds: []source.EmbedRef{ref("slow"), ref("fast"), ref("hydrax")},
				}, nil),
			},
			Embeds: []*source.Embed{
				staticEmbed("slow", 1, hls("slow", source.FlagCORSAllowed)),
				staticEmbed("fast", 9, hls("fast"), hls("locked", source.FlagIPLocked)),
			},
		}
		opts := Options{Media: movie, Registry: registry, ConsistentIP: true}

		Convey("Results follow source rank, then embed rank", func() {
			report, err := Run(context.Background(), opts)
			So(err, ShouldBeNil)

			var got []string
			for _, r := range report.Results {
				got = append(got, r.SourceID+"/"+r.EmbedID+"/"+r.Stream.ID)
			}
			So(got, ShouldResemble, []string{
				"high//direct",
				"high/fast/fast",
				"high/fast/locked",
				"high/slow/slow",
				"low/fast/fast",
				"low/fast/locked",
			})

			Convey("Refs without a driver are recorded as unsupported", func() {
				So(report.Failures, ShouldHaveLength, 1)
				So(report.Failures[0].EmbedID, ShouldEqual, "hydrax")
				So(report.Failures[0].Kind, ShouldEqual, FailureUnsupported)
			})
		})

		Convey("The browser target keeps only cors-allowed streams", func() {
			opts.Target = Browser
			report, err := Run(context.Background(), opts)
			So(err, ShouldBeNil)

			var got []string
			for _, r := range report.Results {
				got = append(got, r.Stream.ID)
			}
			So(got, ShouldResemble, []string{"direct", "slow"})
		})

		Convey("Without a consistent ip, ip-locked streams are dropped", func() {
			opts.ConsistentIP = false
			report, err := Run(context.Background(), opts)
			So(err, ShouldBeNil)
			for _, r := range report.Results {
				So(r.Stream.Flags.Has(source.FlagIPLocked), ShouldBeFalse)
			}
			So(report.Results, ShouldHaveLength, 4)
		})

		Convey("Selecting sources restricts the run", func() {
			opts.Sources = []string{"low"}
			report, err := Run(context.Background(), opts)
			So(err, ShouldBeNil)
			So(report.Results, ShouldHaveLength, 2)
			So(report.Results[0].SourceID, ShouldEqual, "low")
		})

		Convey("Unknown source ids are rejected", func() {
			opts.Sources = []string{"nope"}
			_, err := Run(context.Background(), opts)
			var unknown *UnknownDriverError
			So(errors.As(err, &unknown), ShouldBeTrue)
			So(unknown.ID, ShouldEqual, "nope")
		})

		Convey("Invalid media is rejected before any driver runs", func() {
			opts.Media = source.Media{Kind: source.Show, Title: "x"}
			_, err := Run(context.Background(), opts)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given drivers that fail", t, func() {
		registry := &Registry{
			Sources: []*source.Sourcerer{
				staticSource("missing", 3, nil, nil, source.NotFound("no such title")),
				staticSource("broken", 2, nil, &source.Output{Embeds: []source.EmbedRef{ref("bad"), {EmbedID: "fine", URL: "/relative"}}}, nil),
			},
			Embeds: []*source.Embed{
				failingEmbed("bad", 1, source.Malformed("json")),
				staticEmbed("fine", 1, hls("x")),
			},
		}

		report, err := Run(context.Background(), Options{Media: movie, Registry: registry})
		So(err, ShouldBeNil)
		So(report.Results, ShouldBeEmpty)

		kinds := map[string]FailureKind{}
		for _, f := range report.Failures {
			kinds[f.SourceID+"/"+f.EmbedID] = f.Kind
		}
		So(kinds, ShouldResemble, map[string]FailureKind{
			"missing/":    FailureNotFound,
			"broken/bad":  FailureMalformed,
			"broken/fine": FailureMalformed,
		})
	})

	Convey("Given drivers that return no output", t, func() {
		empty := &source.Embed{
			Meta: source.Meta{ID: "empty", Rank: 2},
			Scrape: func(ctx context.Context, sc source.Context, url string) (*source.EmbedOutput, error) {
				return nil, nil
			},
		}
		registry := &Registry{
			Sources: []*source.Sourcerer{
				staticSource("blank", 2, nil, nil, nil),
				staticSource("linked", 1, nil, &source.Output{Embeds: []source.EmbedRef{ref("empty"), ref("fine")}}, nil),
			},
			Embeds: []*source.Embed{empty, staticEmbed("fine", 1, hls("x"))},
		}

		var report *Report
		var err error
		So(func() { report, err = Run(context.Background(), Options{Media: movie, Registry: registry, ConsistentIP: true}) }, ShouldNotPanic)
		So(err, ShouldBeNil)
		So(report.Failures, ShouldBeEmpty)
		So(report.Results, ShouldHaveLength, 1)
		So(report.Results[0].EmbedID, ShouldEqual, "fine")
	})

	Convey("Given a run cancelled by the first source", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var secondCalled atomic.Bool
		registry := &Registry{
			Sources: []*source.Sourcerer{
				{
					Meta: source.Meta{ID: "first", Rank: 2},
					ScrapeMovie: func(ctx context.Context, sc source.Context, media source.Media) (*source.Output, error) {
						cancel()
						return &source.Output{Stream: []source.Stream{hls("partial")}}, nil
					},
				},
				{
					Meta: source.Meta{ID: "second", Rank: 1},
					ScrapeMovie: func(ctx context.Context, sc source.Context, media source.Media) (*source.Output, error) {
						secondCalled.Store(true)
						return &source.Output{}, nil
					},
				},
			},
		}

		report, err := Run(ctx, Options{Media: movie, Registry: registry})

		So(errors.Is(err, context.Canceled), ShouldBeTrue)
		So(secondCalled.Load(), ShouldBeFalse)
		So(report, ShouldNotBeNil)
		So(report.Results, ShouldHaveLength, 1)
	})

	Convey("Given many embeds and a concurrency limit", t, func() {
		var inFlight, peak atomic.Int32
		slow := &source.Embed{
			Meta: source.Meta{ID: "slow", Rank: 1},
			Scrape: func(ctx context.Context, sc source.Context, url string) (*source.EmbedOutput, error) {
				n := inFlight.Add(1)
				defer inFlight.Add(-1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				return &source.EmbedOutput{Stream: []source.Stream{hls("s")}}, nil
			},
		}

		refs := make([]source.EmbedRef, 6)
		for i := range refs {
			refs[i] = ref("slow")
		}
		registry := &Registry{
			Sources: []*source.Sourcerer{staticSource("many", 1, nil, &source.Output{Embeds: refs}, nil)},
			Embeds:  []*source.Embed{slow},
		}

		report, err := Run(context.Background(), Options{Media: movie, Registry: registry, Concurrency: 2})
		So(err, ShouldBeNil)
		So(report.Results, ShouldHaveLength, 6)
		So(peak.Load(), ShouldBeLessThanOrEqualTo, int32(2))
	})
}

func TestRunEmbed(t *testing.T) {
	Convey("Given a registry with one embed", t, func() {
		registry := &Registry{Embeds: []*source.Embed{staticEmbed("solo", 1, hls("only"))}}

		Convey("It resolves the embed directly", func() {
			report, err := RunEmbed(context.Background(), Options{Registry: registry, ConsistentIP: true}, ref("solo"))
			So(err, ShouldBeNil)
			So(report.Results, ShouldHaveLength, 1)
			So(report.Results[0].EmbedID, ShouldEqual, "solo")
		})

		Convey("An unknown embed is rejected", func() {
			_, err := RunEmbed(context.Background(), Options{Registry: registry}, ref("other"))
			var unknown *UnknownDriverError
			So(errors.As(err, &unknown), ShouldBeTrue)
		})
	})
}

func TestTargets(t *testing.T) {
	Convey("Targets", t, func() {
		target, err := ParseTarget("browser-extension")
		So(err, ShouldBeNil)
		So(target, ShouldEqual, BrowserExtension)

		_, err = ParseTarget("tv")
		So(err, ShouldNotBeNil)

		So(Native.Allows(nil), ShouldBeTrue)
		So(Browser.Allows(nil), ShouldBeFalse)
		So(Browser.Allows(source.NewFlags(source.FlagCORSAllowed)), ShouldBeTrue)
	})

	Convey("Classify", t, func() {
		So(Classify(context.Canceled), ShouldEqual, FailureCancelled)
		So(Classify(source.NotFound("x")), ShouldEqual, FailureNotFound)
		So(Classify(errors.New("boom")), ShouldEqual, FailureError)
	})
}
