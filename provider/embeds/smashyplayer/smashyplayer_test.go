package smashyplayer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cinesrc/cinesrc/filesystem"
	"github.com/cinesrc/cinesrc/key"
	"github.com/cinesrc/cinesrc/log"
	"github.com/cinesrc/cinesrc/network"
	"github.com/cinesrc/cinesrc/source"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

// debugLogs turns on debug logging to the in-memory filesystem and records every entry.
func debugLogs() (*test.Hook, func()) {
	filesystem.SetMemMapFs()
	viper.Set(key.LogsWrite, true)
	viper.Set(key.LogsLevel, "debug")
	lo.Must0(log.Setup())
	hook := test.NewGlobal()

	return hook, func() {
		hook.Reset()
		viper.Set(key.LogsWrite, false)
		lo.Must0(log.Setup())
	}
}

func loggedEmbeds(hook *test.Hook) []any {
	return lo.Map(hook.AllEntries(), func(e *logrus.Entry, _ int) any {
		return e.Data["embed"]
	})
}

func TestParseSubtitles(t *testing.T) {
	Convey("ParseSubtitles", t, func() {
		captions := ParseSubtitles("[English]https://cdn.example/en.vtt,[Français]https://cdn.example/fr.srt,[Nope]https://cdn.example/x.vtt,[German]https://cdn.example/de.ass")
		So(captions, ShouldHaveLength, 2)
		So(captions[0].Language, ShouldEqual, "en")
		So(captions[0].URL, ShouldEqual, "https://cdn.example/en.vtt")
		So(captions[1].Language, ShouldEqual, "fr")
		So(captions[1].Type, ShouldEqual, source.SRT)

		So(ParseSubtitles(""), ShouldBeEmpty)
		So(ParseSubtitles("garbage"), ShouldBeEmpty)
	})
}

func TestPlayers(t *testing.T) {
	Convey("Given the smashystream player api", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/getplayer.php", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("tmdb") == "0" {
				fmt.Fprint(w, `{"sourceUrls": [], "subtitleUrls": ""}`)
				return
			}
			fmt.Fprint(w, `{"sourceUrls": ["https://cdn.example/smashy/master.m3u8"], "subtitleUrls": "[English]https://cdn.example/en.vtt"}`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		sc := source.Context{Fetcher: network.NewHTTPFetcher(srv.Client(), "")}

		Convey("The F player resolves a cors-allowed stream", func() {
			out, err := NewF().Scrape(context.Background(), sc, srv.URL+"/getplayer.php?tmdb=550&player=f")
			So(err, ShouldBeNil)
			So(out.Stream, ShouldHaveLength, 1)
			So(out.Stream[0].Playlist, ShouldEqual, "https://cdn.example/smashy/master.m3u8")
			So(out.Stream[0].Flags.Has(source.FlagCORSAllowed), ShouldBeTrue)
			So(out.Stream[0].Captions, ShouldHaveLength, 1)
		})

		Convey("The O player returns the same output", func() {
			f, err := NewF().Scrape(context.Background(), sc, srv.URL+"/getplayer.php?tmdb=550&player=o")
			So(err, ShouldBeNil)
			o, err := NewO().Scrape(context.Background(), sc, srv.URL+"/getplayer.php?tmdb=550&player=o")
			So(err, ShouldBeNil)
			So(o, ShouldResemble, f)
			So(NewO().ID, ShouldEqual, OID)
		})

		Convey("The O player logs under its own id", func() {
			hook, restore := debugLogs()
			defer restore()

			_, err := NewO().Scrape(context.Background(), sc, srv.URL+"/getplayer.php?tmdb=550&player=o")
			So(err, ShouldBeNil)
			So(loggedEmbeds(hook), ShouldContain, OID)
			So(loggedEmbeds(hook), ShouldNotContain, FID)
		})

		Convey("An empty source list is not found", func() {
			_, err := NewF().Scrape(context.Background(), sc, srv.URL+"/getplayer.php?tmdb=0&player=f")
			So(source.IsNotFound(err), ShouldBeTrue)
		})
	})
}
