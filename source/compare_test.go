package source

import (
	"testing"

	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalizeTitle(t *testing.T) {
	Convey("NormalizeTitle", t, func() {
		So(NormalizeTitle("  The Lord of the Rings: The Two Towers "), ShouldEqual, "the_lord_of_the_rings_the_two_towers")
		So(NormalizeTitle("Ocean's Eleven"), ShouldEqual, "oceans_eleven")
		So(NormalizeTitle("Spider-Man:   Homecoming!"), ShouldEqual, "spider_man_homecoming")
		So(NormalizeTitle("Pokémon"), ShouldEqual, "pokémon")

		Convey("It strips a trailing 'the movie' or 'the series'", func() {
			So(NormalizeTitle("Demon Slayer: The Movie"), ShouldEqual, "demon_slayer")
			So(NormalizeTitle("Avatar The Series"), ShouldEqual, "avatar")
			So(NormalizeTitle("The Movie"), ShouldEqual, "the_movie")
		})

		Convey("It only strips whole words", func() {
			So(NormalizeTitle("Bathe Movie"), ShouldEqual, "bathe_movie")
		})
	})
}

func TestCompare(t *testing.T) {
	Convey("Given a movie query with a year", t, func() {
		media := NewMovie("Example Movie", mo.Some(2020))

		Convey("Titles differing only in case and punctuation match", func() {
			So(Compare(media, "example movie", mo.Some(2020)), ShouldBeTrue)
			So(Compare(media, "Example: Movie!", mo.Some(2020)), ShouldBeTrue)
			So(Compare(media, "EXAMPLE   MOVIE", mo.None[int]()), ShouldBeTrue)
		})

		Convey("A missing candidate year does not disqualify", func() {
			So(Compare(media, "Example Movie", mo.None[int]()), ShouldBeTrue)
		})

		Convey("A year within tolerance matches", func() {
			So(Compare(media, "Example Movie", mo.Some(2021)), ShouldBeTrue)
		})

		Convey("A year beyond tolerance fails", func() {
			So(Compare(media, "Example Movie", mo.Some(2023)), ShouldBeFalse)
		})

		Convey("Titles differing by a real word do not match", func() {
			So(Compare(media, "Example Movie 2", mo.Some(2020)), ShouldBeFalse)
			So(Compare(media, "Another Movie", mo.Some(2020)), ShouldBeFalse)
		})
	})

	Convey("Given a query without a year", t, func() {
		media := NewEpisode("Example Show", mo.None[int](), 1, 1)

		Convey("Any candidate year is accepted", func() {
			So(Compare(media, "Example Show", mo.Some(1999)), ShouldBeTrue)
		})
	})
}

func TestMatch(t *testing.T) {
	Convey("Given a search result set", t, func() {
		results := []SearchResult{
			{Title: "Example Movie 2", Year: mo.Some(2020), Locator: "/m/999"},
			{Title: "Example Movie", Year: mo.Some(2020), Kind: mo.Some(Show), Locator: "/tv/5"},
			{Title: "Example Movie", Year: mo.Some(2020), Locator: "/m/123"},
		}

		Convey("A movie query resolves to the exact title", func() {
			found, ok := Match(NewMovie("Example Movie", mo.Some(2020)), results)
			So(ok, ShouldBeTrue)
			So(found.Locator, ShouldEqual, "/m/123")
		})

		Convey("A query nothing matches reports false", func() {
			_, ok := Match(NewMovie("Unrelated", mo.None[int]()), results)
			So(ok, ShouldBeFalse)
		})
	})
}
