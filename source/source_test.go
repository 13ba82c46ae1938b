package source

import (
	"context"
	"errors"
	"testing"

	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseKind(t *testing.T) {
	Convey("ParseKind", t, func() {
		kind, err := ParseKind("Movie")
		So(err, ShouldBeNil)
		So(kind, ShouldEqual, Movie)

		kind, err = ParseKind("tv")
		So(err, ShouldBeNil)
		So(kind, ShouldEqual, Show)

		_, err = ParseKind("anime")
		So(err, ShouldNotBeNil)
	})
}

func TestMediaValidate(t *testing.T) {
	Convey("Given media queries", t, func() {
		Convey("A titled movie is valid", func() {
			So(NewMovie("Example", mo.None[int]()).Validate(), ShouldBeNil)
		})

		Convey("An empty title is rejected", func() {
			So(NewMovie("  ", mo.Some(2020)).Validate(), ShouldNotBeNil)
		})

		Convey("A show without an episode number is rejected", func() {
			media := Media{Kind: Show, Title: "Example", Season: mo.Some(1)}
			So(media.Validate(), ShouldNotBeNil)
		})

		Convey("A complete episode query is valid", func() {
			media := NewEpisode("Example", mo.Some(2019), 2, 5)
			So(media.Validate(), ShouldBeNil)
			So(media.String(), ShouldEqual, "Example (2019) S02E05")
		})
	})
}

func TestFlags(t *testing.T) {
	Convey("Given a flag set", t, func() {
		flags := NewFlags(FlagCORSAllowed, FlagIPLocked, FlagCORSAllowed)

		Convey("Duplicates are dropped and order kept", func() {
			So(flags, ShouldResemble, Flags{FlagCORSAllowed, FlagIPLocked})
		})

		Convey("Has reports membership", func() {
			So(flags.Has(FlagIPLocked), ShouldBeTrue)
			So(flags.Has(FlagCFBlocked), ShouldBeFalse)
		})

		Convey("Without leaves the receiver untouched", func() {
			stripped := flags.Without(FlagCORSAllowed)
			So(stripped, ShouldResemble, Flags{FlagIPLocked})
			So(flags.Has(FlagCORSAllowed), ShouldBeTrue)
		})
	})
}

func TestAliasTable(t *testing.T) {
	Convey("Given an alias table", t, func() {
		table := AliasTable{"upcloud": "megacloud", "megacloud": "megacdn"}

		Convey("Known names resolve deterministically", func() {
			for i := 0; i < 3; i++ {
				id, ok := table.Resolve("upcloud")
				So(ok, ShouldBeTrue)
				So(id, ShouldEqual, "megacloud")
			}
		})

		Convey("Unknown names report false", func() {
			_, ok := table.Resolve("unknownserver")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestEmbedRefValidate(t *testing.T) {
	Convey("EmbedRef.Validate", t, func() {
		So(EmbedRef{EmbedID: "megacloud", URL: "https://megacloud.example/e/abc"}.Validate(), ShouldBeNil)
		So(EmbedRef{EmbedID: "megacloud", URL: "/e/abc"}.Validate(), ShouldNotBeNil)
		So(EmbedRef{EmbedID: "megacloud", URL: "https://"}.Validate(), ShouldNotBeNil)
	})
}

func TestStream(t *testing.T) {
	Convey("Given streams", t, func() {
		Convey("An hls stream needs a playlist", func() {
			So(Stream{Type: HLS}.IsValid(), ShouldBeFalse)
			So(Stream{Type: HLS, Playlist: "https://cdn.example/master.m3u8"}.IsValid(), ShouldBeTrue)
		})

		Convey("A file stream needs a quality with a url", func() {
			empty := Stream{Type: File, Qualities: map[Quality]FileVariant{Quality720: {Type: "mp4"}}}
			So(empty.IsValid(), ShouldBeFalse)

			file := Stream{Type: File, Qualities: map[Quality]FileVariant{
				Quality480:  {Type: "mp4", URL: "https://cdn.example/480.mp4"},
				Quality1080: {Type: "mp4", URL: "https://cdn.example/1080.mp4"},
			}}
			So(file.IsValid(), ShouldBeTrue)
			So(file.Locator(), ShouldEqual, "https://cdn.example/1080.mp4")
		})

		Convey("Unknown types are invalid", func() {
			So(Stream{Type: "dash", Playlist: "x"}.IsValid(), ShouldBeFalse)
		})
	})
}

func TestSourcererScrape(t *testing.T) {
	Convey("Given a movie-only source", t, func() {
		called := false
		s := &Sourcerer{
			Meta: Meta{ID: "example", Name: "Example", Rank: 1},
			ScrapeMovie: func(ctx context.Context, sc Context, media Media) (*Output, error) {
				called = true
				return &Output{Embeds: []EmbedRef{{EmbedID: "megacloud", URL: "https://e.example/1"}}}, nil
			},
		}

		So(s.Supports(Movie), ShouldBeTrue)
		So(s.Supports(Show), ShouldBeFalse)

		Convey("Movies are dispatched", func() {
			out, err := s.Scrape(context.Background(), Context{}, NewMovie("Example", mo.None[int]()))
			So(err, ShouldBeNil)
			So(called, ShouldBeTrue)
			So(out.Embeds, ShouldHaveLength, 1)
		})

		Convey("Shows fail as unsupported", func() {
			_, err := s.Scrape(context.Background(), Context{}, NewEpisode("Example", mo.None[int](), 1, 1))
			So(errors.Is(err, ErrUnsupported), ShouldBeTrue)
		})

		Convey("Invalid media never reaches the driver", func() {
			_, err := s.Scrape(context.Background(), Context{}, NewMovie("", mo.None[int]()))
			So(err, ShouldNotBeNil)
			So(called, ShouldBeFalse)
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Error constructors wrap their sentinels", t, func() {
		So(IsNotFound(NotFound("no %s", "season")), ShouldBeTrue)
		So(errors.Is(Malformed("bad json"), ErrMalformed), ShouldBeTrue)
		So(IsNotFound(Malformed("bad json")), ShouldBeFalse)
		So(NotFound("season %d", 3).Error(), ShouldEqual, "season 3: not found")
	})
}
